package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/reports"
	"github.com/Spok95/buildmat/internal/export"
)

func (c *CLI) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Revenue reports",
	}

	var days int
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Revenue per day for the last N days, today included",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(c.printDaily(cmd, days))
		},
	}
	daily.Flags().IntVar(&days, "days", 7, "number of days")

	var start, end string
	period := &cobra.Command{
		Use:   "period",
		Short: "Revenue, paid and due for an inclusive date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(c.printPeriod(cmd, start, end))
		},
	}
	period.Flags().StringVar(&start, "start", "", "start date, YYYY-MM-DD")
	period.Flags().StringVar(&end, "end", "", "end date, YYYY-MM-DD")
	_ = period.MarkFlagRequired("start")
	_ = period.MarkFlagRequired("end")

	var limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "Top customers by revenue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(c.printTopCustomers(cmd, limit))
		},
	}
	top.Flags().IntVar(&limit, "limit", 5, "number of customers")

	cmd.AddCommand(daily, period, top)
	return cmd
}

func (c *CLI) printDaily(cmd *cobra.Command, days int) error {
	if days <= 0 {
		return reports.ErrInvalidDays
	}
	svc, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	rows, err := svc.reports.RevenueByDay(cmd.Context(), days)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sales found in the selected period.")
		return nil
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Day.Format(reports.DateLayout), money(r.Revenue)})
	}
	return table(cmd.OutOrStdout(), []string{"Day", "Revenue"}, out)
}

func (c *CLI) printPeriod(cmd *cobra.Command, start, end string) error {
	from, err := reports.ParseDate(start)
	if err != nil {
		return err
	}
	to, err := reports.ParseDate(end)
	if err != nil {
		return err
	}
	if from.After(to) {
		return reports.ErrInvalidRange
	}
	svc, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	t, err := svc.reports.RevenuePeriod(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	return table(cmd.OutOrStdout(), []string{"Revenue", "Paid", "Due"},
		[][]string{{money(t.Revenue), money(t.Paid), money(t.Due)}})
}

func (c *CLI) printTopCustomers(cmd *cobra.Command, limit int) error {
	if limit <= 0 {
		return reports.ErrInvalidLimit
	}
	svc, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	rows, err := svc.reports.TopCustomers(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No customer sales data available.")
		return nil
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.CustomerName, money(r.Revenue)})
	}
	return table(cmd.OutOrStdout(), []string{"Customer", "Revenue"}, out)
}

func (c *CLI) dashboardCmd() *cobra.Command {
	var threshold, days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Business summary: counts, revenue, unpaid, low stock, top items",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			d, err := svc.reports.Dashboard(cmd.Context(), c.threshold(cmd, threshold), days)
			if err != nil {
				return err
			}
			return printDashboard(cmd, d)
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 20, "low stock threshold")
	cmd.Flags().IntVar(&days, "days", 0, "limit sales totals to last N days (0 = all time)")
	return cmd
}

func printDashboard(cmd *cobra.Command, d *reports.Dashboard) error {
	w := cmd.OutOrStdout()
	title := "Business Dashboard Summary"
	if d.LastNDays > 0 {
		title = fmt.Sprintf("%s (last %d days)", title, d.LastNDays)
	}
	fmt.Fprintf(w, "===== %s =====\n", title)
	err := table(w, []string{"Metric", "Value"}, [][]string{
		{"Customers", strconv.FormatInt(d.Customers, 10)},
		{"Suppliers", strconv.FormatInt(d.Suppliers, 10)},
		{"Materials", strconv.FormatInt(d.Materials, 10)},
		{"Total Revenue", money(d.TotalRevenue)},
		{"Total Unpaid", money(d.TotalUnpaid)},
		{fmt.Sprintf("Low Stock Items (<=%d)", d.LowStockThreshold), strconv.FormatInt(d.LowStockCount, 10)},
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nTop 5 Selling Items:")
	if len(d.TopItems) == 0 {
		fmt.Fprintln(w, "No sales data available.")
		return nil
	}
	rows := make([][]string, 0, len(d.TopItems))
	for _, it := range d.TopItems {
		rows = append(rows, []string{it.ItemName, strconv.FormatInt(it.TotalSold, 10)})
	}
	return table(w, []string{"Item", "Total Sold"}, rows)
}

func (c *CLI) lowStockCmd() *cobra.Command {
	var (
		threshold int
		csvPath   string
		xlsxPath  string
	)
	cmd := &cobra.Command{
		Use:   "lowstock",
		Short: "Materials with stock at or below the threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold = c.threshold(cmd, threshold)
			items, err := c.printLowStock(cmd, threshold)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if csvPath != "" {
				if err := writeFile(csvPath, func(f *os.File) error { return export.WriteLowStockCSV(f, items) }); err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved CSV to %s\n", csvPath)
			}
			if xlsxPath != "" {
				if err := writeFile(xlsxPath, func(f *os.File) error { return export.WriteLowStockXLSX(f, items) }); err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved XLSX to %s\n", xlsxPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 20, "stock threshold, inclusive")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the report to this CSV file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report to this XLSX file")
	return cmd
}

func (c *CLI) printLowStock(cmd *cobra.Command, threshold int) ([]materials.LowStockItem, error) {
	svc, err := c.services(cmd.Context())
	if err != nil {
		return nil, err
	}
	items, err := svc.reports.LowStock(cmd.Context(), threshold)
	if err != nil {
		return nil, err
	}
	w := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintf(w, "No materials at or below %d units.\n", threshold)
		return items, nil
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.ItemName, strconv.Itoa(it.QuantityInStock), it.UnitType,
			strconv.FormatInt(it.SupplierID, 10),
		})
	}
	return items, table(w, []string{"Item", "In Stock", "Unit", "Supplier"}, rows)
}

// threshold: значение флага, если он задан явно, иначе порог из конфига.
func (c *CLI) threshold(cmd *cobra.Command, flag int) int {
	if cmd.Flags().Changed("threshold") {
		return flag
	}
	return c.cfg.Reports.LowStockThreshold
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
