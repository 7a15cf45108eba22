package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"chartink-gateway/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "version: %s\n", version.Version)
		fmt.Fprintf(out, "commit:  %s\n", version.Commit)
		fmt.Fprintf(out, "built:   %s\n", version.BuildDate)
		fmt.Fprintf(out, "go:      %s\n", runtime.Version())
	},
}
