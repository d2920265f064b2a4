// Command craftd runs and inspects the crafting service.
package main

import (
	"fmt"
	"os"

	"github.com/Mithi83/Applied-Energistics-2/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
