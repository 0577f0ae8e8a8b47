package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pharma-guard/pharmaguard/internal/config"
	"github.com/pharma-guard/pharmaguard/internal/logging"
	"github.com/pharma-guard/pharmaguard/pkg/external"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	apiURL     string
	logLevel   string

	out    io.Writer
	errOut io.Writer
}

// app is the configuration and logger a subcommand runs with.
type app struct {
	config *config.Manager
	logger *logrus.Logger
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "pharmaguard",
		Short: "Pharmacogenomic risk reports from patient VCF files",
		Long: `pharmaguard uploads a patient VCF file together with a drug selection to the
PharmaGuard analysis service and renders one risk card per drug.

The service location comes from --api-url, PHARMAGUARD_API_BASE_URL or
api.base_url in config.yaml, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "path to config file (default: ./config.yaml if present)")
	flags.StringVar(&opts.apiURL, "api-url", "", "analysis service base URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newDrugsCmd(opts),
		newGenesCmd(opts),
		newHealthCmd(opts),
		newReportsCmd(opts),
		newServeCmd(opts),
	)

	return rootCmd
}

// load resolves configuration and logging for one invocation.
func (o *globalOptions) load() (*app, error) {
	cm, err := config.NewManager(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.apiURL != "" {
		cm.SetAPIBaseURL(o.apiURL)
	}
	if o.logLevel != "" {
		cm.SetLogLevel(o.logLevel)
	}
	if err := cm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cm.GetConfig().Logging)
	if err != nil {
		return nil, err
	}

	return &app{config: cm, logger: logger, out: o.out, errOut: o.errOut}, nil
}

func (a *app) client() *external.AnalysisClient {
	return external.NewAnalysisClient(*a.config.GetAPIConfig(), a.logger)
}
