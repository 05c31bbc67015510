package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfwise/internal/adapters/driving/mcp"
)

var versionJSON bool

// versionInfo is the --json form of `shelfwise version`.
type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	MCPServer string `json:"mcp_server"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{
			Version:   version,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			MCPServer: mcp.Version,
		}
		if versionJSON {
			return outputJSON(cmd, info)
		}
		cmd.Printf("shelfwise version %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(versionCmd)
}
