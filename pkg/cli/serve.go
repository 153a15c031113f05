package cli

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/appsfolder/SWVNE/pkg/handlers"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Run:   runServe,
	})
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		exitErr("invalid config", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := handlers.NewDeps(cfg)
	// Surface content problems at startup; requests reload from disk.
	if _, err := deps.Content.LoadAll(); err != nil {
		exitErr("load content", err)
	}

	r := handlers.NewRouter(cfg, deps)
	log.Printf("[Server] Listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("[Server] Failed to start server: %v", err)
	}
}
