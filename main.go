package main

import (
	"os"

	"github.com/appsfolder/SWVNE/pkg/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
