package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a12042020/contract-analyzer/internal/analysis"
)

func newSummarizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <path>",
		Short: "Produce a markdown risk summary for one contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			documentID, extracted, err := extractOne(cmd, a, args[0])
			if err != nil {
				return err
			}

			svc := analysis.NewService(a.store.Store, a.llm, a.logger)
			summary, err := svc.Summarize(cmd.Context(), documentID, extracted, a.force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return err
		},
	}
}
