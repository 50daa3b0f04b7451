package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/sales"
)

var errQuit = errors.New("quit")

// prompter читает ответы построчно; io.EOF на вводе завершает меню.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
}

func (p *prompter) readLine(caption string) (string, error) {
	fmt.Fprint(p.out, caption)
	text, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", errQuit
	}
	return strings.TrimSpace(text), nil
}

func (p *prompter) readInt(caption string) (int, error) {
	s, err := p.readLine(caption)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

// readIntDefault: пустой ответ означает def.
func (p *prompter) readIntDefault(caption string, def int) (int, error) {
	s, err := p.readLine(fmt.Sprintf("%s[%d]: ", caption, def))
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

const shellMenu = `
1: Add Customer
2: Add Supplier
3: Add Material
4: Record Sale
5: Low Stock
6: Dashboard
7: Daily Revenue
8: Top Customers
9: List Sales
X: Exit
`

func (c *CLI) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShell(cmd)
		},
	}
}

func (c *CLI) runShell(cmd *cobra.Command) error {
	p := &prompter{r: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
	for {
		fmt.Fprint(p.out, shellMenu)
		choice, err := p.readLine("Enter choice: ")
		if err != nil {
			return nil
		}
		if strings.EqualFold(choice, "x") {
			return nil
		}
		err = c.shellAction(cmd, p, choice)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			// ошибка одного действия не закрывает меню
			fmt.Fprintf(p.out, "Error: %v\n", err)
		}
	}
}

func (c *CLI) shellAction(cmd *cobra.Command, p *prompter, choice string) error {
	ctx := cmd.Context()
	switch choice {
	case "1", "2":
		name, err := p.readLine("Name: ")
		if err != nil {
			return err
		}
		phone, err := p.readLine("Phone (10 digits): ")
		if err != nil {
			return err
		}
		address, err := p.readLine("Address: ")
		if err != nil {
			return err
		}
		svc, err := c.services(ctx)
		if err != nil {
			return err
		}
		if choice == "1" {
			x, err := svc.customers.Create(ctx, name, phone, address)
			if err != nil {
				return err
			}
			fmt.Fprintf(p.out, "Added customer #%d\n", x.ID)
			return nil
		}
		x, err := svc.suppliers.Create(ctx, name, phone, address)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "Added supplier #%d\n", x.ID)
		return nil

	case "3":
		var nm materials.NewMaterial
		var err error
		if nm.Name, err = p.readLine("Material name: "); err != nil {
			return err
		}
		price, err := p.readLine("Price per unit: ")
		if err != nil {
			return err
		}
		pp, err := optDecimal("price", price)
		if err != nil {
			return err
		}
		if pp != nil {
			nm.PricePerUnit = *pp
		}
		if nm.UnitType, err = p.readLine("Unit type: "); err != nil {
			return err
		}
		if nm.Quantity, err = p.readInt("Quantity: "); err != nil {
			return err
		}
		sid, err := p.readInt("Supplier ID: ")
		if err != nil {
			return err
		}
		nm.SupplierID = int64(sid)
		svc, err := c.services(ctx)
		if err != nil {
			return err
		}
		m, err := svc.materials.Create(ctx, nm)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "Added material #%d\n", m.ID)
		return nil

	case "4":
		return c.shellSale(cmd, p)

	case "5":
		n, err := p.readIntDefault("Stock threshold ", c.cfg.Reports.LowStockThreshold)
		if err != nil {
			return err
		}
		_, err = c.printLowStock(cmd, n)
		return err

	case "6":
		n, err := p.readIntDefault("Stock threshold ", c.cfg.Reports.LowStockThreshold)
		if err != nil {
			return err
		}
		days, err := p.readIntDefault("Last N days, 0 = all time ", 0)
		if err != nil {
			return err
		}
		svc, err := c.services(ctx)
		if err != nil {
			return err
		}
		d, err := svc.reports.Dashboard(ctx, n, days)
		if err != nil {
			return err
		}
		return printDashboard(cmd, d)

	case "7":
		days, err := p.readIntDefault("Days ", 7)
		if err != nil {
			return err
		}
		return c.printDaily(cmd, days)

	case "8":
		limit, err := p.readIntDefault("Limit ", 5)
		if err != nil {
			return err
		}
		return c.printTopCustomers(cmd, limit)

	case "9":
		return c.printSales(cmd)
	}
	fmt.Fprintln(p.out, "Unknown choice.")
	return nil
}

func (c *CLI) shellSale(cmd *cobra.Command, p *prompter) error {
	var in sales.NewSale
	cid, err := p.readInt("Customer ID: ")
	if err != nil {
		return err
	}
	iid, err := p.readInt("Material ID: ")
	if err != nil {
		return err
	}
	in.CustomerID, in.ItemID = int64(cid), int64(iid)
	if in.Quantity, err = p.readInt("Quantity: "); err != nil {
		return err
	}
	total, err := p.readLine("Total price: ")
	if err != nil {
		return err
	}
	if in.Total, err = optDecimal("total", total); err != nil {
		return err
	}
	paid, err := p.readLine("Amount paid (blank = total): ")
	if err != nil {
		return err
	}
	if in.AmountPaid, err = optDecimal("paid", paid); err != nil {
		return err
	}
	due, err := p.readLine("Amount due (blank = total - paid): ")
	if err != nil {
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
}
