package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adolanium/SWLic/internal/app"
	"github.com/Adolanium/SWLic/internal/config"
	"github.com/Adolanium/SWLic/internal/infrastructure"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Starts the web form, the JSON API, health probes and metrics.
The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config and $PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(configPath())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyLogLevel(cfg)
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return application.Run(cmd.Context())
}
