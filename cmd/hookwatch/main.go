// Command hookwatch relays Discord messages that match configured rules to
// webhooks.
package main

import (
	"fmt"
	"os"

	"hookwatch/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
