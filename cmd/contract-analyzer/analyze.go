package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a12042020/contract-analyzer/internal/analysis"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var policyPath string

	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze one contract against a reference policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			policy, err := os.ReadFile(policyPath)
			if err != nil {
				return fmt.Errorf("read policy: %w", err)
			}

			documentID, extracted, err := extractOne(cmd, a, args[0])
			if err != nil {
				return err
			}

			svc := analysis.NewService(a.store.Store, a.llm, a.logger)
			report, err := svc.AnalyzePolicy(cmd.Context(), documentID, extracted, string(policy), a.force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmd.Flags().StringVar(&policyPath, "policy", "", "path to the policy file (required)")
	_ = cmd.MarkFlagRequired("policy")
	return cmd
}
