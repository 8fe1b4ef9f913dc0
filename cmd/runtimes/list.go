package main

import (
	"github.com/spf13/cobra"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

func newListCmd(a *app) *cobra.Command {
	var (
		target string
		flavor string
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog distributions",
		Long: `List every distribution in the catalog, in catalog order.

Examples:
  runtimes list
  runtimes list --target x86_64-pc-windows-msvc
  runtimes list --flavor standalone_static --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			var accepts func(entities.DistributionRecord) bool
			if flavor != "" {
				f, err := entities.ParseFlavor(flavor)
				if err != nil {
					return err
				}
				accepts = f.Accepts
			}

			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}

			records := make([]entities.DistributionRecord, 0, reg.Len())
			for _, r := range reg.Records() {
				if target != "" && r.TargetTriple != target {
					continue
				}
				if accepts != nil && !accepts(r) {
					continue
				}
				records = append(records, r)
			}

			return writeRecords(cmd.OutOrStdout(), format, records)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "only show distributions for this target triple")
	cmd.Flags().StringVarP(&flavor, "flavor", "f", "", "only show distributions accepted by this flavor")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")

	return cmd
}
