package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adolanium/SWLic/internal/app"
	"github.com/Adolanium/SWLic/internal/config"
	"github.com/Adolanium/SWLic/internal/infrastructure"
	"github.com/Adolanium/SWLic/internal/portal"
)

var (
	configFile string
	logLevel   string
)

// Replaced in tests.
var (
	newScraper = func(cfg config.PortalConfig, logger *slog.Logger) portal.Scraper {
		return portal.NewConfiguredScraper(cfg, logger)
	}
	loadServicePacks = app.LoadServicePacks
)

var rootCmd = &cobra.Command{
	Use:   "swlic",
	Short: "SOLIDWORKS license portal lookup",
	Long: `swlic looks SOLIDWORKS serial numbers up on the customer portal and
reports product, version, maintenance end, the activated machine and the
service pack the maintenance window entitles to.

Run "swlic serve" for the HTTP service or "swlic check" for a single lookup.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default $SWLIC_CONFIG or configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}

// loadClientConfig loads configuration for commands that do not serve HTTP.
// Logs go to stderr so stdout stays machine readable.
func loadClientConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadClient(configPath())
	if err != nil {
		return nil, nil, err
	}
	applyLogLevel(cfg)

	return cfg, infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr()), nil
}

func applyLogLevel(cfg *config.Config) {
	if logLevel != "" {
		cfg.Logging.Level = strings.ToLower(logLevel)
	}
}

// printOut writes a line to stdout. cobra's Println goes to stderr.
func printOut(cmd *cobra.Command, a ...interface{}) {
	fmt.Fprintln(cmd.OutOrStdout(), a...)
}
