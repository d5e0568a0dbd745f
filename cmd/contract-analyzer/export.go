package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a12042020/contract-analyzer/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all cached contract extractions to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cleanup, err := a.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := export.NewService(a.store.Store, a.logger)
			data, err := svc.ExportContractsXLSX(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "contracts.xlsx", "output XLSX path")
	return cmd
}
