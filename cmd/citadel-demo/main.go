// Command citadel-demo is line-mode demo tooling that exercises the Citadel
// envelope and keystore end to end. It calls the same facade functions an
// HTTP transport or backup tool would.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "citadel-demo:", err)
		os.Exit(1)
	}
}
