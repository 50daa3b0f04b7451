package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Spok95/buildmat/internal/domain/customers"
	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/suppliers"
	"github.com/Spok95/buildmat/internal/export"
)

// contact: общий вид покупателя и поставщика для печати.
type contact struct {
	ID                   int64
	Name, Phone, Address string
}

// contactOps: операции над справочником покупателей или поставщиков.
type contactOps struct {
	create func(ctx context.Context, s *services, name, phone, address string) (contact, error)
	list   func(ctx context.Context, s *services) ([]contact, error)
	search func(ctx context.Context, s *services, q string) ([]contact, error)
	update func(ctx context.Context, s *services, id int64, name, phone, address *string) (contact, error)
	delete func(ctx context.Context, s *services, id int64) error
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer, got %q", s)
	}
	return id, nil
}

func printContacts(cmd *cobra.Command, list []contact) error {
	rows := make([][]string, 0, len(list))
	for _, x := range list {
		rows = append(rows, []string{strconv.FormatInt(x.ID, 10), x.Name, x.Phone, x.Address})
	}
	return table(cmd.OutOrStdout(), []string{"ID", "Name", "Phone", "Address"}, rows)
}

// stringFlag возвращает значение флага, только если он задан явно.
func stringFlag(cmd *cobra.Command, name string, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func (c *CLI) contactCmd(use, noun string, ops contactOps) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: "Manage " + use}

	var name, phone, address string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a " + noun,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			x, err := ops.create(cmd.Context(), svc, name, phone, address)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s #%d %s\n", noun, x.ID, x.Name)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", noun+" name")
	add.Flags().StringVar(&phone, "phone", "", "10-digit phone")
	add.Flags().StringVar(&address, "address", "", "address")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all " + use,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			xs, err := ops.list(cmd.Context(), svc)
			if err != nil {
				return err
			}
			return printContacts(cmd, xs)
		},
	}

	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find " + use + " by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			xs, err := ops.search(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			if len(xs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing found.")
				return nil
			}
			return printContacts(cmd, xs)
		},
	}

	var uName, uPhone, uAddress string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change only the given fields of a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			x, err := ops.update(cmd.Context(), svc, id,
				stringFlag(cmd, "name", uName),
				stringFlag(cmd, "phone", uPhone),
				stringFlag(cmd, "address", uAddress))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s #%d\n", noun, x.ID)
			return nil
		},
	}
	update.Flags().StringVar(&uName, "name", "", "new name")
	update.Flags().StringVar(&uPhone, "phone", "", "new 10-digit phone")
	update.Flags().StringVar(&uAddress, "address", "", "new address")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := ops.delete(cmd.Context(), svc, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s #%d\n", noun, id)
			return nil
		},
	}

	cmd.AddCommand(add, list, search, update, del)
	return cmd
}

func fromCustomer(x customers.Customer) contact {
	return contact{ID: x.ID, Name: x.Name, Phone: x.Phone, Address: x.Address}
}

func fromSupplier(x suppliers.Supplier) contact {
	return contact{ID: x.ID, Name: x.Name, Phone: x.Phone, Address: x.Address}
}

func (c *CLI) customersCmd() *cobra.Command {
	return c.contactCmd("customers", "customer", contactOps{
		create: func(ctx context.Context, s *services, name, phone, address string) (contact, error) {
			x, err := s.customers.Create(ctx, name, phone, address)
			if err != nil {
				return contact{}, err
			}
			return fromCustomer(*x), nil
		},
		list: func(ctx context.Context, s *services) ([]contact, error) {
			xs, err := s.customers.List(ctx)
			return mapContacts(xs, fromCustomer), err
		},
		search: func(ctx context.Context, s *services, q string) ([]contact, error) {
			xs, err := s.customers.SearchByName(ctx, q)
			return mapContacts(xs, fromCustomer), err
		},
		update: func(ctx context.Context, s *services, id int64, name, phone, address *string) (contact, error) {
			x, err := s.customers.Update(ctx, id, customers.Update{Name: name, Phone: phone, Address: address})
			if err != nil {
				return contact{}, err
			}
			return fromCustomer(*x), nil
		},
		delete: func(ctx context.Context, s *services, id int64) error {
			return s.customers.Delete(ctx, id)
		},
	})
}

func (c *CLI) suppliersCmd() *cobra.Command {
	return c.contactCmd("suppliers", "supplier", contactOps{
		create: func(ctx context.Context, s *services, name, phone, address string) (contact, error) {
			x, err := s.suppliers.Create(ctx, name, phone, address)
			if err != nil {
				return contact{}, err
			}
			return fromSupplier(*x), nil
		},
		list: func(ctx context.Context, s *services) ([]contact, error) {
			xs, err := s.suppliers.List(ctx)
			return mapContacts(xs, fromSupplier), err
		},
		search: func(ctx context.Context, s *services, q string) ([]contact, error) {
			xs, err := s.suppliers.SearchByName(ctx, q)
			return mapContacts(xs, fromSupplier), err
		},
		update: func(ctx context.Context, s *services, id int64, name, phone, address *string) (contact, error) {
			x, err := s.suppliers.Update(ctx, id, suppliers.Update{Name: name, Phone: phone, Address: address})
			if err != nil {
				return contact{}, err
			}
			return fromSupplier(*x), nil
		},
		delete: func(ctx context.Context, s *services, id int64) error {
			return s.suppliers.Delete(ctx, id)
		},
	})
}

func mapContacts[T any](xs []T, fn func(T) contact) []contact {
	out := make([]contact, 0, len(xs))
	for _, x := range xs {
		out = append(out, fn(x))
	}
	return out
}

func printMaterials(cmd *cobra.Command, list []materials.Material) error {
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10), m.Name, money(m.PricePerUnit), m.UnitType,
			strconv.Itoa(m.QuantityInStock), strconv.FormatInt(m.SupplierID, 10),
		})
	}
	return table(cmd.OutOrStdout(), []string{"ID", "Item", "Price", "Unit", "In Stock", "Supplier"}, rows)
}

func (c *CLI) materialsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "materials", Short: "Manage materials and stock"}

	var (
		nm    materials.NewMaterial
		price string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a material",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("--price: %q is not a number", price)
			}
			nm.PricePerUnit = p
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			m, err := svc.materials.Create(cmd.Context(), nm)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added material #%d %s\n", m.ID, m.Name)
			return nil
		},
	}
	add.Flags().StringVar(&nm.Name, "name", "", "item name")
	add.Flags().StringVar(&price, "price", "0", "price per unit")
	add.Flags().StringVar(&nm.UnitType, "unit", "", "unit type (bag, ton, piece...)")
	add.Flags().IntVar(&nm.Quantity, "quantity", 0, "initial stock")
	add.Flags().Int64Var(&nm.SupplierID, "supplier", 0, "supplier id")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all materials",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			ms, err := svc.materials.List(cmd.Context())
			if err != nil {
				return err
			}
			return printMaterials(cmd, ms)
		},
	}

	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find materials by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			ms, err := svc.materials.SearchByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing found.")
				return nil
			}
			return printMaterials(cmd, ms)
		},
	}

	var (
		uName, uPrice, uUnit string
		uQty                 int
		uSupplier            int64
	)
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change only the given fields of a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u := materials.Update{
				Name:     stringFlag(cmd, "name", uName),
				UnitType: stringFlag(cmd, "unit", uUnit),
			}
			if cmd.Flags().Changed("price") {
				p, err := decimal.NewFromString(uPrice)
				if err != nil {
					return fmt.Errorf("--price: %q is not a number", uPrice)
				}
				u.PricePerUnit = &p
			}
			if cmd.Flags().Changed("quantity") {
				u.Quantity = &uQty
			}
			if cmd.Flags().Changed("supplier") {
				u.SupplierID = &uSupplier
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			m, err := svc.materials.Update(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated material #%d\n", m.ID)
			return nil
		},
	}
	update.Flags().StringVar(&uName, "name", "", "new item name")
	update.Flags().StringVar(&uPrice, "price", "", "new price per unit")
	update.Flags().StringVar(&uUnit, "unit", "", "new unit type")
	update.Flags().IntVar(&uQty, "quantity", 0, "new stock level")
	update.Flags().Int64Var(&uSupplier, "supplier", 0, "new supplier id")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.materials.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted material #%d\n", id)
			return nil
		},
	}

	var restockQty int
	restock := &cobra.Command{
		Use:   "restock ID",
		Short: "Add delivered units to stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			stock, err := svc.materials.Restock(cmd.Context(), id, restockQty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Material #%d now has %d in stock\n", id, stock)
			return nil
		},
	}
	restock.Flags().IntVar(&restockQty, "quantity", 0, "units delivered")

	imp := &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Create new materials and restock existing ones from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.importMaterials(cmd, args[0])
		},
	}

	var withSales bool
	exp := &cobra.Command{
		Use:   "export FILE.xlsx",
		Short: "Write the catalog (or the sales journal with --sales) to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			if withSales {
				lines, err := svc.sales.List(cmd.Context())
				if err != nil {
					return err
				}
				err = writeFile(args[0], func(f *os.File) error { return export.WriteSalesXLSX(f, lines) })
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sales to %s\n", len(lines), args[0])
				return nil
			}
			ms, err := svc.materials.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeFile(args[0], func(f *os.File) error { return export.WriteMaterialsXLSX(f, ms) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d materials to %s\n", len(ms), args[0])
			return nil
		},
	}
	exp.Flags().BoolVar(&withSales, "sales", false, "export sales instead of materials")

	cmd.AddCommand(add, list, search, update, del, restock, imp, exp)
	return cmd
}

func (c *CLI) importMaterials(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	parsed, rowErrs, err := export.ReadMaterialsXLSX(f)
	if err != nil {
		if errors.Is(err, export.ErrEmptyWorkbook) {
			fmt.Fprintln(cmd.ErrOrStderr(), "The workbook has no material rows.")
			return nil
		}
		return err
	}
	svc, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	res, err := export.ApplyImport(cmd.Context(), svc.materials, parsed)
	if err != nil {
		return err
	}
	for _, re := range append(rowErrs, res.Failed...) {
		fmt.Fprintln(cmd.ErrOrStderr(), re.Error())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Import done: %d created, %d updated, %d unchanged, %d skipped\n",
		res.Created, res.Updated, res.Unchanged, len(rowErrs)+len(res.Failed))
	return nil
}
