package cli

import (
	"github.com/spf13/cobra"

	"github.com/Adolanium/SWLic/pkg/contracts"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		if versionVerbose {
			printOut(cmd, contracts.GetFullVersionString())
			return
		}
		printOut(cmd, contracts.GetVersionString())
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "include build details")
	rootCmd.AddCommand(versionCmd)
}
