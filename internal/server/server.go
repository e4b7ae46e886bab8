// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package server

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/JosuX/jh/internal/db"
)

//go:embed all:static
var staticFS embed.FS

//go:embed pages/*.html
var pagesFS embed.FS

func NewServer(
	serviceName string,
	staticDir string,
	adminPassword string,
	cutoff time.Time,
	gStore db.GuestStore,
	sStore db.SessionStore,
) *Server {
	s := &Server{
		logger:        slog.Default().WithGroup("http"),
		serviceName:   serviceName,
		staticDir:     staticDir,
		adminPassword: adminPassword,
		cutoff:        cutoff,
		gStore:        gStore,
		sStore:        sStore,
		pages:         template.Must(template.ParseFS(pagesFS, "pages/*.html")),
	}
	s.engine = s.routes()
	return s
}

type Server struct {
	serviceName   string
	staticDir     string
	adminPassword string
	cutoff        time.Time
	logger        *slog.Logger
	gStore        db.GuestStore
	sStore        db.SessionStore
	pages         *template.Template
	engine        *gin.Engine
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) routes() *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	mux := gin.New()

	mux.Use(
		sloggin.NewWithConfig(s.logger,
			sloggin.Config{
				DefaultLevel:     slog.LevelInfo,
				ClientErrorLevel: slog.LevelWarn,
				ServerErrorLevel: slog.LevelError,
			},
		),
		gin.Recovery(), otelgin.Middleware(s.serviceName), slogAddTraceAttributes,
	)

	var static fs.FS
	var err error
	switch {
	case s.staticDir != "":
		static = os.DirFS(s.staticDir)
	default:
		static, err = fs.Sub(staticFS, "static")
		if err != nil {
			panic(err)
		}
	}
	mux.StaticFS("/static", http.FS(static))

	mux.GET("/", s.renderPage("index.html"))
	mux.GET("/invitation", s.renderPage("invitation.html"))
	mux.GET("/admin", s.renderPage("admin.html"))
	mux.GET("/admin/scan", s.renderPage("scan.html"))

	handler := NewHandler(s.gStore, s.sStore, s.cutoff)
	api := mux.Group("/api")
	api.POST("/auth/verify", handler.VerifyCode)
	api.GET("/auth/session", handler.Session)
	api.GET("/rsvp", handler.RSVPStatus)
	api.POST("/rsvp", handler.ConfirmRSVP)
	api.GET("/rsvp/qr", handler.QRCode)

	adminArea := api.Group("/admin")
	adminArea.POST("/scan", handler.Scan)
	adminArea.GET("/guests", handler.ListGuests)
	adminArea.PATCH("/guests", handler.ResetStatus)
	adminArea.DELETE("/guests", handler.RemoveSessions)

	mux.NoRoute(notFound)

	return mux
}

// pageData is handed to every page template. The admin password is a screen
// deterrent checked in the browser, not an access-control boundary.
type pageData struct {
	AdminPassword string
	Cutoff        string
}

func (s *Server) renderPage(name string) gin.HandlerFunc {
	data := pageData{
		AdminPassword: s.adminPassword,
	}
	if !s.cutoff.IsZero() {
		data.Cutoff = s.cutoff.Format(time.RFC3339)
	}
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		if err := s.pages.ExecuteTemplate(c.Writer, name, data); err != nil {
			s.logger.ErrorContext(c.Request.Context(), "could not render page", "page", name, "error", err)
			c.String(http.StatusInternalServerError, "could not render page")
		}
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "message": "Page not found"})
}

func slogAddTraceAttributes(c *gin.Context) {
	sloggin.AddCustomAttributes(c,
		slog.String("trace-id", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
	)
	sloggin.AddCustomAttributes(c,
		slog.String("span-id", trace.SpanFromContext(c.Request.Context()).SpanContext().SpanID().String()),
	)
	c.Next()
}
