package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/websearch/internal/config"
	"github.com/hyperifyio/websearch/internal/providers"
	"github.com/hyperifyio/websearch/internal/search"
)

type rootOptions struct {
	envFiles []string
	cfg      config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "websearch",
		Short:         "Multi-provider web search",
		Long:          "websearch fans a query out to the configured search providers and returns one normalized result list.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(opts.envFiles...); err != nil {
				return fmt.Errorf("load env files: %w", err)
			}
			config.ApplyEnv(&opts.cfg)
			setupLogging(opts.cfg.Verbose)
			return nil
		},
	}
	f := root.PersistentFlags()
	f.StringVarP(&opts.cfg.ConfigPath, "config", "c", "", "provider document (YAML or JSON); defaults to $"+config.EnvDocument)
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading configuration")
	f.DurationVar(&opts.cfg.Timeout, "timeout", 0, "per-request timeout (default "+config.DefaultTimeout.String()+")")
	f.IntVar(&opts.cfg.MaxResults, "max-results", 0, "maximum results per provider")
	f.BoolVar(&opts.cfg.Debug, "debug", false, "log search dispatch and provider outcomes")
	f.BoolVarP(&opts.cfg.Verbose, "verbose", "v", false, "verbose logging, including HTTP traffic")

	root.AddCommand(newServeCmd(opts), newQueryCmd(opts), newProvidersCmd())
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	return root
}

// setupLogging sends zerolog output to stderr; stdout is reserved for
// results and JSON-RPC traffic.
func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// loadProviders reads the provider document, folds its defaults into cfg
// and builds every enabled provider.
func loadProviders(cfg *config.Config) ([]search.Provider, error) {
	doc, err := config.LoadDocument(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	config.ApplyDefaults(cfg, doc.Defaults)
	ps, err := config.Hydrate(doc, providers.Registry())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name())
	}
	log.Debug().Strs("providers", names).Dur("timeout", cfg.Timeout).Msg("providers configured")
	return ps, nil
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the provider names accepted in the configuration document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range providers.Registry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
