package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Spok95/buildmat/internal/domain/reports"
	"github.com/Spok95/buildmat/internal/domain/sales"
)

func (c *CLI) saleCmd() *cobra.Command {
	var (
		in               sales.NewSale
		total, paid, due string
	)
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Record a sale and decrement stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Total, err = optDecimal("total", total); err != nil {
				return err
			}
			if in.AmountPaid, err = optDecimal("paid", paid); err != nil {
				return err
			}
			if in.AmountDue, err = optDecimal("due", due); err != nil {
				return err
			}
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			s, err := svc.recorder.Record(cmd.Context(), in)
			if err != nil {
				return saleError(err)
			}
			printSale(cmd, s)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&in.CustomerID, "customer", 0, "customer id")
	f.Int64Var(&in.ItemID, "item", 0, "material id")
	f.IntVar(&in.Quantity, "quantity", 0, "units sold")
	f.StringVar(&total, "total", "", "sale total")
	f.StringVar(&in.PaymentMethod, "method", sales.DefaultPaymentMethod, "payment method")
	f.StringVar(&paid, "paid", "", "amount paid (defaults to total)")
	f.StringVar(&due, "due", "", "amount due (defaults to total - paid)")
	f.StringVar(&in.PaymentStatus, "status", sales.DefaultPaymentStatus, "payment status")
	return cmd
}

// saleError делает текст ошибки продажи понятным без стектрейса.
func saleError(err error) error {
	var short *sales.InsufficientStockError
	switch {
	case errors.As(err, &short):
		return fmt.Errorf("not enough stock: only %d units available", short.Available)
	case errors.Is(err, sales.ErrMaterialNotFound):
		return errors.New("material not found")
	case errors.Is(err, sales.ErrCustomerNotFound):
		return errors.New("customer not found")
	}
	return err
}

func printSale(cmd *cobra.Command, s *sales.Sale) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"Sale #%d recorded: item %d x %d, total %s, paid %s, due %s, %s/%s\n",
		s.OrderNo, s.ItemID, s.Quantity, money(s.Total), money(s.AmountPaid), money(s.AmountDue),
		s.PaymentMethod, s.PaymentStatus)
}

func (c *CLI) salesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Browse recorded sales",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "All sales with customer and material names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printSales(cmd)
		},
	}

	var limit int
	popular := &cobra.Command{
		Use:   "popular",
		Short: "Materials by total quantity sold",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			items, err := svc.sales.PopularItems(cmd.Context(), limit)
			if err != nil {
				if errors.Is(err, sales.ErrInvalidLimit) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					return nil
				}
				return err
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.ItemName, strconv.FormatInt(it.TotalSold, 10)})
			}
			return table(cmd.OutOrStdout(), []string{"Item", "Total Sold"}, rows)
		},
	}
	popular.Flags().IntVar(&limit, "limit", 5, "number of items")

	cmd.AddCommand(list, popular)
	return cmd
}

func (c *CLI) printSales(cmd *cobra.Command) error {
	svc, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	lines, err := svc.sales.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sales recorded.")
		return nil
	}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{
			strconv.FormatInt(l.OrderNo, 10),
			l.SaleDate.Format(reports.DateLayout),
			l.CustomerName,
			l.ItemName,
			strconv.Itoa(l.Quantity),
			money(l.Total),
			money(l.AmountPaid),
			money(l.AmountDue),
			l.PaymentStatus,
		})
	}
	return table(cmd.OutOrStdout(),
		[]string{"Order", "Date", "Customer", "Item", "Qty", "Total", "Paid", "Due", "Status"}, rows)
}
