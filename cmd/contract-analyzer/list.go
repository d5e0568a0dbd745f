package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a12042020/contract-analyzer/constants"
)

func newListCmd(a *app) *cobra.Command {
	var ns string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts in a namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cleanup, err := a.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			namespace := constants.Namespace(ns)
			if !namespace.Valid() {
				return fmt.Errorf("unknown namespace %q", ns)
			}

			keys, err := a.store.Store.ListKeys(ctx, namespace)
			if err != nil {
				return err
			}
			for _, key := range keys {
				artifact, ok, err := a.store.Store.Get(ctx, namespace, key)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					key, artifact.DocumentID, artifact.Schema, artifact.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ns, "namespace", string(constants.NamespaceExtraction), "namespace to list (resource, extraction, derived)")
	return cmd
}
