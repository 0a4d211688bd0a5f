// SPDX-License-Identifier: GPL-3.0-or-later

// Command abxclient reconciles the ABX exchange market-data feed and
// writes the ordered records as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/bassosimone/abxclient/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "abxclient: %s\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
