package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Adolanium/SWLic/internal/exporter"
	"github.com/Adolanium/SWLic/internal/servicepack"
	"github.com/Adolanium/SWLic/internal/services"
	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

var (
	checkJSON   bool
	checkExport string
	checkFormat string
)

var checkCmd = &cobra.Command{
	Use:   "check <serial>",
	Short: "Look a serial number up on the license portal",
	Long: `Signs in to the license portal, opens the serial's detail page and prints
the product, version, maintenance end, activated machine, subscription status
and the service pack the maintenance window entitles to.

Use --export to also write the result as an xlsx or csv file.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output the result as JSON")
	checkCmd.Flags().StringVarP(&checkExport, "export", "o", "", "write the result to this file")
	checkCmd.Flags().StringVar(&checkFormat, "format", "", "export format: xlsx or csv (default from the file extension)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadClientConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format, err := exportFormat(checkFormat, checkExport)
	if err != nil {
		return err
	}

	table, err := loadServicePacks(cmd.Context(), cfg.ServicePacks)
	if err != nil {
		return err
	}

	service := services.NewLicenseService(
		newScraper(cfg.Portal, logger),
		servicepack.NewResolver(table),
		cfg.Portal.MaxSessions,
		logger,
	)

	check, err := service.CheckSerial(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if checkExport != "" {
		if err := writeExport(checkExport, format, check); err != nil {
			return err
		}
		logger.InfoContext(cmd.Context(), "license check exported",
			"path", checkExport,
			"format", string(format))
	}

	if checkJSON {
		data, err := json.MarshalIndent(check, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		printOut(cmd, string(data))
		return nil
	}

	printCheck(cmd, check)
	return nil
}

// exportFormat picks the export format from the flag or the file extension
func exportFormat(flag, path string) (exporter.Format, error) {
	if flag == "" && path != "" {
		flag = strings.TrimPrefix(filepath.Ext(path), ".")
		if _, err := exporter.ParseFormat(flag); err != nil {
			flag = ""
		}
	}
	return exporter.ParseFormat(flag)
}

func writeExport(path string, format exporter.Format, check *domain.LicenseCheck) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := exporter.Export(f, format, check); err != nil {
		return fmt.Errorf("failed to export result: %w", err)
	}
	return nil
}

func printCheck(cmd *cobra.Command, check *domain.LicenseCheck) {
	s := newStyles(cmd.OutOrStdout())

	printOut(cmd, s.Title.Render("License Check"))
	for _, field := range exporter.Summary(check) {
		value := field.Value
		if field.Label == "Subscription Status" {
			if check.OnSubscription() {
				value = s.Success.Render(value)
			} else {
				value = s.Warning.Render(value)
			}
		}
		printOut(cmd, s.field(field.Label, value))
	}

	printOut(cmd)
	if len(check.Activations) == 0 {
		printOut(cmd, s.Muted.Render("No activation rows."))
		return
	}

	printOut(cmd, s.Header.Render("Activations"))
	for _, a := range check.Activations {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			s.Muted.Width(6).Render(strconv.Itoa(a.Row)),
			s.Value.Width(32).Render(a.MachineName),
			s.Value.Render(exporter.FormatActivated(a.Activated)),
		)
		printOut(cmd, line)
	}
}
