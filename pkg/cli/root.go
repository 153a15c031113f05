// Package cli implements the swvne commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appsfolder/SWVNE/pkg/config"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "swvne",
	Short: "Content and asset server for a web visual novel engine",
	Long:  "Serves merged JSON content and uploaded media for the visual novel engine, backed by flat files.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml, .toml or .json; default: $SWVNE_CONFIG)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
