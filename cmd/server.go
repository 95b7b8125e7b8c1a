package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"media54/config"
	"media54/handlers"
	"media54/middleware"
	"media54/services"
	"media54/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// Server bundles the router with the services behind it
type Server struct {
	Router *gin.Engine
	Hub    websocket.Hub
	Store  services.CollectionStore
}

// NewServer wires services and handlers. The hub runs until ctx is done.
func NewServer(ctx context.Context, cfg *config.Config, store services.CollectionStore, launcher services.SurfaceLauncher) (*Server, error) {
	if err := store.EnsureDataRoot(); err != nil {
		return nil, err
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run(ctx)

	displays := services.NewDisplayService(cfg.Displays)

	// Initialize handlers
	collectionHandler := handlers.NewCollectionHandler(store)
	fileHandler := handlers.NewFileHandler(store)
	presentationHandler := handlers.NewPresentationHandler(hub, displays, launcher, cfg.BaseURL(), cfg.Surfaces.SendBuffer)
	healthHandler := handlers.NewHealthHandler(store.DataRoot())

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply middleware
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	setupRoutes(r, collectionHandler, fileHandler, presentationHandler, healthHandler)

	return &Server{Router: r, Hub: hub, Store: store}, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, collectionHandler *handlers.CollectionHandler, fileHandler *handlers.FileHandler, presentationHandler *handlers.PresentationHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// Page loaded by presentation windows
	r.GET("/presentation", handlers.PresentationPage)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Collections
		collectionsGroup := apiGroup.Group("/collections")
		{
			collectionsGroup.GET("", collectionHandler.ListCollections)
			collectionsGroup.POST("", collectionHandler.CreateCollection)
			collectionsGroup.GET("/:id", collectionHandler.GetCollection)
			collectionsGroup.PUT("/:id", collectionHandler.SaveCollection)
			collectionsGroup.POST("/:id/import", collectionHandler.ImportFiles)
			collectionsGroup.GET("/:id/files/:name", fileHandler.StreamFile)
		}

		// Displays and presentation surfaces
		apiGroup.GET("/displays", presentationHandler.ListDisplays)
		apiGroup.POST("/presentations", presentationHandler.OpenPresentation)
		apiGroup.POST("/broadcast", presentationHandler.Broadcast)
		apiGroup.GET("/state", presentationHandler.GetState)
		apiGroup.GET("/surfaces", presentationHandler.ListSurfaces)

		// WebSocket endpoint for control and presentation surfaces
		apiGroup.GET("/ws/surface", presentationHandler.HandleSurfaceConnection)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `Start the HTTP and WebSocket server used by the control surface and presentation windows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			return StartWebServer(cfg)
		},
	}
}

// StartWebServer runs the server until SIGINT or SIGTERM
func StartWebServer(cfg *config.Config) error {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := services.NewCollectionStore(cfg.DataRoot, services.NewTagExtractor(), cfg.Cache.ManifestTTL)
	launcher := services.NewCommandLauncher(cfg.Launcher.Command, cfg.Launcher.Args)

	srv, err := NewServer(ctx, cfg, store, launcher)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: srv.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Media54 server starting on port %d (data root %s)", cfg.Server.Port, cfg.DataRoot)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
