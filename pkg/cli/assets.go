package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/appsfolder/SWVNE/pkg/handlers"
)

func init() {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect uploaded media",
	}
	assetsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List audio files and registered locations as JSON",
		Run:   runAssetsList,
	})
	RootCmd.AddCommand(assetsCmd)
}

func runAssetsList(cmd *cobra.Command, args []string) {
	deps := handlers.NewDeps(loadConfig())

	listing, err := deps.Assets.List()
	if err != nil {
		exitErr("list assets", err)
	}
	b, _ := json.MarshalIndent(listing, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
