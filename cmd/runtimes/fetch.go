package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/runtimes/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/runtimes/internal/domain-orchestrators"
	"github.com/ochairo/runtimes/internal/domain/interfaces"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		sel         selector
		interpreter bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download, verify and extract the selected distribution",
		Long: `Install the distribution find would select into the cache directory
and print its root. Archives are verified against their catalog sha256
before extraction; installed archives are reused.

Examples:
  runtimes fetch
  runtimes fetch --target x86_64-unknown-linux-musl --version 3.10
  runtimes fetch --interpreter`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			orch := orchestrators.NewInstallOrchestrator(
				reg,
				gateways.NewDownloader(
					gateways.WithDownloadTimeout(a.cfg.HTTPTimeout),
					gateways.WithDownloadLogger(a.logger),
				),
				gateways.NewChecksumVerifier(),
				gateways.NewExtractor(a.logger),
				gateways.NewArtifactFinder(),
				a.logger,
				orchestrators.InstallOrchestratorConfig{CacheDir: a.cfg.CacheDir},
			)

			artifact, err := orch.Install(cmd.Context(), orchestrators.Request{
				TargetTriple: target,
				Flavor:       flavor,
				Version:      sel.version,
			})
			if err != nil {
				return err
			}

			a.logger.Info("distribution ready",
				interfaces.F("version", artifact.Version),
				interfaces.F("target", artifact.TargetTriple),
				interfaces.F("interpreter", artifact.Interpreter),
				interfaces.F("cached", artifact.Cached),
			)

			path := artifact.Path
			if interpreter {
				if artifact.Interpreter == "" {
					return fmt.Errorf("no python interpreter found in %s", artifact.Path)
				}
				path = artifact.Interpreter
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().BoolVar(&interpreter, "interpreter", false, "print the python executable instead of the distribution root")

	return cmd
}
