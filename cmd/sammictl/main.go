// Sammictl sends requests to a local SAMMI instance.
//
// Usage:
//
//	sammictl ops
//	sammictl send <request> [key=value ...]
//	sammictl run
//
// Settings come from the environment (and configs/.env); flags override them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sammictl",
	Short: "SAMMI API client",
	Long: `Send requests to the SAMMI control-panel REST API.

Connection settings are read from SAMMI_HOST, SAMMI_PORT, SAMMI_PASSWORD and
SAMMI_TIMEOUT_SECONDS and can be overridden with flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagHost     string
	flagPort     int
	flagPassword string
	flagTimeout  int
)

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHost, "host", "", "SAMMI host (default from SAMMI_HOST or localhost)")
	pf.IntVar(&flagPort, "port", 0, "SAMMI API port; invalid values fall back to 9450")
	pf.StringVar(&flagPassword, "password", "", "value sent in the Authorization header")
	pf.IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds (0 = none)")

	rootCmd.AddCommand(opsCmd, sendCmd, runCmd)
}
