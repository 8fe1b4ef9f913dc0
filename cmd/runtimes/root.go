package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ochairo/runtimes/internal/config"
	"github.com/ochairo/runtimes/internal/domain/entities"
	"github.com/ochairo/runtimes/internal/domain/interfaces"
	"github.com/ochairo/runtimes/internal/domain/services"
	"github.com/ochairo/runtimes/internal/external-adapters/gpg"
	"github.com/ochairo/runtimes/internal/external-adapters/yaml"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

// app carries state shared by every subcommand
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  interfaces.Logger
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: &interfaces.NoOpLogger{},
		errOut: errOut,
	}

	root := &cobra.Command{
		Use:   "runtimes",
		Short: "Select and install standalone CPython distributions",
		Long: `runtimes knows a catalog of prebuilt standalone CPython distributions
and picks the one matching a target triple, a linkage flavor and a version.

Flavors:
  standalone          any distribution for the target
  standalone_static   only statically linked distributions
  standalone_dynamic  only distributions that can load prebuilt extension modules`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./.runtimes.yaml or $XDG_CONFIG_HOME/runtimes/config.yaml)")
	pf.String("catalog", "", "distribution manifest (default: built-in catalog)")
	pf.String("catalog-signature", "", "detached OpenPGP signature of the manifest")
	pf.String("keyring", "", "public keys trusted to sign the manifest")
	pf.String("cache-dir", "", "directory for downloaded distributions")
	pf.Duration("http-timeout", 0, "timeout for a single download")
	pf.BoolP("debug", "d", false, "enable debug output")
	pf.BoolP("quiet", "q", false, "only log warnings and errors")

	// Bind flags to viper
	for key, flag := range map[string]string{
		config.KeyCatalog:          "catalog",
		config.KeyCatalogSignature: "catalog-signature",
		config.KeyKeyring:          "keyring",
		config.KeyCacheDir:         "cache-dir",
		config.KeyHTTPTimeout:      "http-timeout",
		config.KeyDebug:            "debug",
		config.KeyQuiet:            "quiet",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newListCmd(a),
		newPlatformsCmd(a),
		newFindCmd(a),
		newFetchCmd(a),
		newVersionCmd(),
	)

	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(a.errOut, cfg)
	return nil
}

func newLogger(w io.Writer, cfg config.Config) interfaces.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	} else if cfg.Quiet {
		level = slog.LevelWarn
	}
	return interfaces.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// registry loads the configured catalog, or the built-in one
func (a *app) registry(ctx context.Context) (*services.Registry, error) {
	if a.cfg.Catalog == "" {
		return yaml.BuiltinRegistry()
	}

	opts := []yaml.FileCatalogOption{yaml.WithLogger(a.logger)}
	if a.cfg.CatalogSignature != "" {
		verifier := gpg.NewVerifier()
		if err := verifier.ImportKeyFromFile(a.cfg.Keyring); err != nil {
			return nil, fmt.Errorf("loading keyring: %w", err)
		}
		a.logger.Debug("keyring loaded",
			interfaces.F("path", a.cfg.Keyring),
			interfaces.F("keys", verifier.KeyringSize()),
		)
		opts = append(opts, yaml.WithSignature(a.cfg.CatalogSignature, verifier))
	}

	return yaml.LoadRegistry(ctx, yaml.NewFileCatalogRepository(a.cfg.Catalog, opts...))
}

// selector holds the --target/--flavor/--version flags shared by find and fetch
type selector struct {
	target  string
	flavor  string
	version string
}

func (s *selector) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.target, "target", "t", "", "target triple (default: host)")
	cmd.Flags().StringVarP(&s.flavor, "flavor", "f", "", "standalone, standalone_static or standalone_dynamic (default: config default_flavor)")
	cmd.Flags().StringVar(&s.version, "version", "", "major.minor version (default: "+services.DefaultVersion+")")
}

func (a *app) resolveTarget(target string) (string, error) {
	if target == "" {
		host, ok := entities.HostTriple(runtime.GOOS, runtime.GOARCH)
		if !ok {
			return "", fmt.Errorf("no target triple for host %s/%s; pass --target", runtime.GOOS, runtime.GOARCH)
		}
		return host, nil
	}
	if !entities.IsKnownTriple(target) {
		a.logger.Warn("unknown target triple", interfaces.F("target", target))
	}
	return target, nil
}

func (a *app) resolveFlavor(flavor string) (entities.Flavor, error) {
	if flavor == "" {
		return a.cfg.Flavor(), nil
	}
	return entities.ParseFlavor(flavor)
}
