package commands

import (
	"fmt"
	"runtime"

	"github.com/axondata/go-launchd"
	"github.com/spf13/cobra"
)

// VersionCmd prints version information
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show launchdm version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		info := launchd.GetVersion()

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), info)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "launchdm %s\n", info.Version)
		fmt.Fprintf(w, "Domain: %s\n", info.Domain)
		fmt.Fprintf(w, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
