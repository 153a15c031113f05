package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/appsfolder/SWVNE/pkg/config"
	"github.com/appsfolder/SWVNE/pkg/models"
	"github.com/appsfolder/SWVNE/pkg/services"
)

const sessionName = "swvne_session"

// Deps are the stores the router serves.
type Deps struct {
	Content *services.ContentStore
	Assets  *services.AssetStore
	Catalog *services.LocationCatalog
}

// NewDeps builds the stores described by cfg. The location catalog lives in
// the scenes content directory.
func NewDeps(cfg *config.Config) Deps {
	opts := []services.ContentOption{services.WithStrictMerge(cfg.StrictMerge)}
	if cfg.ContentCache {
		opts = append(opts, services.WithSnapshotCache(services.NewSnapshotCache()))
	}
	content := services.NewContentStore(cfg.ContentDir, opts...)

	catalog := services.NewLocationCatalog(
		filepath.Join(content.Dir(models.Scenes), services.LocationIndexFile),
		services.LocationsDir(cfg.StaticDir),
		services.LocationsURLPrefix,
	)
	assets := services.NewAssetStore(cfg.StaticDir, catalog, services.WithContentVerification(cfg.VerifyUploads))

	return Deps{Content: content, Assets: assets, Catalog: catalog}
}

// NewRouter wires every route. Write endpoints require an admin session;
// content reads, listings and game saves are public.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.Static("/static", cfg.StaticDir)

	authHandler := NewAuthHandler(cfg.AdminPassword)
	contentHandler := NewContentHandler(deps.Content, cfg.MaxUploadBytes)
	assetHandler := NewAssetHandler(deps.Assets, deps.Catalog, cfg.MaxUploadBytes)
	gameHandler := NewGameHandler()

	// --- Auth Routes ---
	r.POST("/admin/login", authHandler.FormLogin)
	r.GET("/admin/logout", authHandler.Logout)

	api := r.Group("/api")
	{
		api.GET("/auth/status", authHandler.Status)
		api.POST("/auth/login", authHandler.APILogin)

		api.GET("/content/:type", contentHandler.GetContent)
		api.GET("/scenarios/list", contentHandler.ListScenarios)
		api.GET("/scenarios/load/:id", contentHandler.LoadScenario)
		api.GET("/characters/list", contentHandler.ListCharacters)
		api.GET("/assets/list", assetHandler.List)

		api.POST("/game/save", gameHandler.Save)
		api.GET("/game/load", gameHandler.Load)
	}

	// --- Admin (Authorized) ---
	admin := api.Group("")
	admin.Use(AuthRequired)
	{
		admin.GET("/admin/content/export/:type", contentHandler.Export)
		admin.POST("/admin/content/upload/:type", contentHandler.Import)

		admin.POST("/scenarios/save", contentHandler.SaveScenario)
		admin.POST("/characters/save", contentHandler.SaveCharacter)
		admin.POST("/characters/upload-image", assetHandler.UploadCharacterImage)

		admin.POST("/assets/upload", assetHandler.Upload)
		admin.POST("/assets/delete", assetHandler.Delete)
		admin.POST("/assets/update-location", assetHandler.UpdateLocation)
	}

	return r
}
