package main

import (
	"github.com/spf13/cobra"

	"github.com/ochairo/runtimes/internal/domain/entities"
	orchestrators "github.com/ochairo/runtimes/internal/domain-orchestrators"
)

func newFindCmd(a *app) *cobra.Command {
	var (
		sel    selector
		format string
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Select the distribution for a target, flavor and version",
		Long: `Select the first catalog distribution matching the target triple,
flavor and version. Exits non-zero when nothing matches.

Examples:
  runtimes find
  runtimes find --target x86_64-pc-windows-msvc --flavor standalone_dynamic
  runtimes find --target aarch64-apple-darwin --version 3.10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			target, err := a.resolveTarget(sel.target)
			if err != nil {
				return err
			}
			flavor, err := a.resolveFlavor(sel.flavor)
			if err != nil {
				return err
			}

			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}

			record, ok := reg.Find(target, flavor, sel.version)
			if !ok {
				return &orchestrators.NoDistributionError{
					TargetTriple: target,
					Flavor:       flavor,
					Version:      sel.version,
				}
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, newRecordView(record))
			}
			return writeRecords(cmd.OutOrStdout(), format, []entities.DistributionRecord{record})
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")

	return cmd
}
