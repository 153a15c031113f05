package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/appsfolder/SWVNE/pkg/models"
	"github.com/appsfolder/SWVNE/pkg/services"
)

func init() {
	contentCmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect content files",
	}

	checkCmd := &cobra.Command{
		Use:   "check [type...]",
		Short: "Load content and report diagnostics",
		Long:  "Load every content type (or the given ones) and print loader diagnostics. Exits 1 when a file could not be used, or on any diagnostic with --strict.",
		Run:   runContentCheck,
	}
	checkCmd.Flags().Bool("strict", false, "Fail on warnings too")

	exportCmd := &cobra.Command{
		Use:   "export <type>",
		Short: "Print the merged content of one type",
		Args:  cobra.ExactArgs(1),
		Run:   runContentExport,
	}
	exportCmd.Flags().StringP("format", "f", services.FormatJSON, "Output format: json, yaml or toml")

	contentCmd.AddCommand(checkCmd, exportCmd)
	RootCmd.AddCommand(contentCmd)
}

func parseContentTypes(args []string) ([]models.ContentType, error) {
	if len(args) == 0 {
		return models.ContentTypes, nil
	}
	types := make([]models.ContentType, 0, len(args))
	for _, arg := range args {
		ct, err := models.ParseContentType(arg)
		if err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	return types, nil
}

func runContentCheck(cmd *cobra.Command, args []string) {
	strict, _ := cmd.Flags().GetBool("strict")

	types, err := parseContentTypes(args)
	if err != nil {
		exitErr("check", err)
	}

	cfg := loadConfig()
	store := services.NewContentStore(cfg.ContentDir, services.WithStrictMerge(cfg.StrictMerge))
	ok, err := checkContent(store, types, strict, cmd.OutOrStdout())
	if err != nil {
		exitErr("check", err)
	}
	if !ok {
		os.Exit(1)
	}
}

// checkContent prints one line per content type and per diagnostic, and
// reports whether the content passed.
func checkContent(store *services.ContentStore, types []models.ContentType, strict bool, w io.Writer) (bool, error) {
	ok := true
	for _, ct := range types {
		entries, diags, err := store.Load(ct)
		if err != nil {
			return false, fmt.Errorf("load %s: %w", ct, err)
		}
		fmt.Fprintf(w, "%s: %d entries, %d diagnostics\n", ct, len(entries), len(diags))
		for _, d := range diags {
			fmt.Fprintf(w, "  %s\n", d)
			if strict || d.IsError() {
				ok = false
			}
		}
	}
	return ok, nil
}

func runContentExport(cmd *cobra.Command, args []string) {
	format, _ := cmd.Flags().GetString("format")

	ct, err := models.ParseContentType(args[0])
	if err != nil {
		exitErr("export", err)
	}

	cfg := loadConfig()
	store := services.NewContentStore(cfg.ContentDir, services.WithStrictMerge(cfg.StrictMerge))
	out, err := store.Export(ct, format)
	if err != nil {
		exitErr("export", err)
	}
	cmd.OutOrStdout().Write(out)
}
