package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adolanium/SWLic/internal/servicepack"
	"github.com/Adolanium/SWLic/internal/services"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <version> <maintEnd>",
	Short: "Resolve the service pack for a version and maintenance end date",
	Long: `Looks the year of <version> up in the service pack table and prints the
latest service pack released on or before <maintEnd>. No portal access is
needed.

Prints "Any SP" when maintenance outlasts every known release and "Unknown"
when the year is not in the table or no release qualifies.`,
	Example: `  swlic resolve "2021 SP5" 2021-05-01
  swlic resolve "2022 SP0" "12/31/2022" --json`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadClientConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	table, err := loadServicePacks(cmd.Context(), cfg.ServicePacks)
	if err != nil {
		return err
	}

	// Resolution never touches the portal
	service := services.NewLicenseService(nil, servicepack.NewResolver(table), 1, logger)

	res, err := service.ResolveServicePack(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if resolveJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		printOut(cmd, string(data))
		return nil
	}

	printOut(cmd, res.SPVersion)
	return nil
}
