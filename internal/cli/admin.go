package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.migrate(c.cfg.DSN()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			c.log.Info("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func (c *CLI) seedCmd() *cobra.Command {
	var supplierID int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample material catalog for a supplier",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			ms, err := svc.materials.Seed(cmd.Context(), supplierID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d materials for supplier #%d\n", len(ms), supplierID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&supplierID, "supplier", 1, "supplier id the sample materials belong to")
	return cmd
}
