package main

import (
	"fmt"
	"os"

	"github.com/reoring/recordsync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "recordsync:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
