// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"github.com/aouyang1/photocontest/api/models"
	"github.com/aouyang1/photocontest/contest"
	"github.com/aouyang1/photocontest/live"
	"github.com/aouyang1/photocontest/results"
	"github.com/aouyang1/photocontest/store"
	"github.com/aouyang1/photocontest/thumbnail"
)

//go:embed web/static
var webFiles embed.FS

const (
	msgUnknownContest = "Unknown contest."
	msgStorageFailure = "Something went wrong on our end. Please try again."

	shutdownTimeout = 10 * time.Second
)

type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	ThumbMaxDim    int
	// PublicURL is the externally reachable base URL used in QR codes. When empty it is derived
	// from the request.
	PublicURL string
}

type WebServer struct {
	router   *gin.Engine
	db       *store.Database
	registry *contest.Registry
	engine   *results.Engine
	hub      *live.Hub

	opts Options
}

func NewWebServer(db *store.Database, registry *contest.Registry, hub *live.Hub, opts Options) *WebServer {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if opts.ThumbMaxDim <= 0 {
		opts.ThumbMaxDim = thumbnail.DefaultMaxDim
	}

	ws := &WebServer{
		router:   gin.Default(),
		db:       db,
		registry: registry,
		engine:   results.NewEngine(db, registry),
		hub:      hub,
		opts:     opts,
	}

	ws.setupRoutes()

	return ws
}

func (ws *WebServer) setupRoutes() {
	// Create filesystem for static files (strip "web/" prefix)
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		log.Fatalf("Failed to create static filesystem: %v", err)
	}
	ws.router.StaticFS("/static", http.FS(staticFS))
	ws.router.Static("/uploads", ws.opts.UploadDir)

	// Pages
	ws.router.GET("/", ws.handleIndex)
	ws.router.GET("/upload", ws.contestPage(pageUpload))
	ws.router.GET("/vote", ws.contestPage(pageVote))
	ws.router.GET("/results", ws.contestPage(pageResults))
	ws.router.GET("/:slug/upload", ws.contestPage(pageUpload))
	ws.router.GET("/:slug/vote", ws.contestPage(pageVote))
	ws.router.GET("/:slug/results", ws.contestPage(pageResults))
	ws.router.GET("/:slug/qr.png", ws.handleQRCode)

	// Live tallies
	ws.router.GET("/ws/:slug", ws.handleLive)

	// API routes
	apiGroup := ws.router.Group("/api")
	apiGroup.GET("/contests", ws.handleListContests)
	apiGroup.GET("/categories", ws.handleListCategories)
	apiGroup.GET("/photos", ws.handleListPhotos)
	apiGroup.POST("/photos", ws.handleCreatePhoto)
	apiGroup.GET("/results", ws.handleResults)
	apiGroup.POST("/votes", ws.handleCreateVote)

	ws.router.GET("/healthz", ws.handleHealth)
}

func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start serves HTTP on addr until ctx is done, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (ws *WebServer) handleHealth(c *gin.Context) {
	if err := ws.db.Ping(c.Request.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, models.StatusResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

func (ws *WebServer) handleLive(c *gin.Context) {
	slug := c.Param("slug")
	if _, err := ws.registry.Get(slug); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msgUnknownContest})
		return
	}
	ws.hub.ServeWS(c.Writer, c.Request, slug)
}

// storageError logs err and replies with a generic 500.
func storageError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgStorageFailure})
}

func render(c *gin.Context, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render page", "path", c.Request.URL.Path, "error", err)
	}
}

// resolveContest returns the contest named by the query parameter, or the default contest.
func (ws *WebServer) resolveContest(c *gin.Context) (contest.Contest, bool) {
	ct, err := ws.registry.Get(c.DefaultQuery("contest", contest.DefaultSlug))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msgUnknownContest})
		return contest.Contest{}, false
	}
	return ct, true
}
