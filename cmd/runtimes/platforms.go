package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlatformsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List target triples with at least one distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}

			triples := reg.TargetTriples()
			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, triples)
			}
			for _, t := range triples {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), t); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")

	return cmd
}
