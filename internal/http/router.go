// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/docs"
	"github.com/ofitrack/ofitrack-backend/internal/auth"
	"github.com/ofitrack/ofitrack-backend/internal/authz"
	"github.com/ofitrack/ofitrack-backend/internal/config"
	"github.com/ofitrack/ofitrack-backend/internal/http/handlers"
	"github.com/ofitrack/ofitrack-backend/internal/http/middleware"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

const (
	forumTitleMaxLen   = 255
	messageMaxRunes    = 4000
	notificationsLimit = 100
)

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Content-Length"}
)

// Policy builds the authorization office policy from configuration.
func Policy(cfg config.Config) authz.OfficePolicy {
	return authz.OfficePolicy{
		Presidencia:     cfg.Policy.PresidenciaOfficeID,
		Vicepresidencia: cfg.Policy.VicepresidenciaOfficeID,
		Seguimiento:     cfg.Policy.SeguimientoOfficeID,
	}
}

// NewAccountService returns the account service configured by cfg. The CLI
// shares it with the HTTP layer.
func NewAccountService(db *gorm.DB, cfg config.Config) *services.AccountService {
	return &services.AccountService{
		DB:         db,
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer),
		NameLocale: language.Spanish,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with header redaction
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip
//  7. Metrics
//  8. CORS and security headers
//
// Per API group, after routing:
//  9. Authenticate (optional token on public routes)
//  10. Idempotency validator (before rate limiter to allow bypass on replay)
//  11. Rate limiter (per user/IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, blobs storage.BlobStore, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log
	r.Use(middleware.Logger(middleware.LogOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit; uploads are bounded again per file
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
		Expose:       corsExpose,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services <- repo/db/storage/policy
	policy := Policy(cfg)
	ev := authz.New(policy)
	uploads := storage.Policy{MaxBytes: cfg.Uploads.MaxBytes, Allowed: cfg.Uploads.AllowedTypes}

	notes := &services.NotificationService{
		DB:          db,
		Timeout:     cfg.Notify.Timeout,
		Concurrency: cfg.Notify.Concurrency,
	}
	ann := &services.Announcer{
		Recipients: &services.RecipientResolver{DB: db, Policy: policy},
		Dispatcher: notes,
	}
	accounts := NewAccountService(db, cfg)

	h := handlers.New(handlers.Services{
		Forums:        &services.ForumService{DB: db, Authz: ev, Announcer: ann, TitleMaxLen: forumTitleMaxLen},
		Messages:      &services.MessageService{DB: db, Authz: ev, Announcer: ann, Blobs: blobs, Uploads: uploads, MaxContentRunes: messageMaxRunes},
		Memos:         &services.MemoService{DB: db, Authz: ev, Announcer: ann, Blobs: blobs, Uploads: uploads},
		Notifications: notes,
		Documents:     &services.DocumentService{DB: db, Blobs: blobs, Uploads: uploads},
		Accounts:      accounts,
		Offices:       &services.OfficeService{DB: db},
	}, handlers.Options{
		DB:                db,
		IdempotencyTTL:    cfg.IdempotencyTTL,
		NotificationLimit: notificationsLimit,
	})

	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, ScopeParam: "id"},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Public: credentials, the office catalog and sent-memo verification.
	// A token is still honored so administrators can grant roles.
	public := api.Group("", middleware.Authenticate(accounts, false), idem, rl.Handler())
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/offices", h.ListOffices)
		public.GET("/offices/:id", h.GetOffice)

		public.POST("/sent-memos", h.CreateSentMemo)
		public.GET("/sent-memos/all", h.ListSentMemos)
		public.GET("/sent-memos/verify/:id", h.VerifySentMemo)
	}

	protected := api.Group("", middleware.Authenticate(accounts, cfg.Auth.Required), idem, rl.Handler())
	{
		protected.GET("/auth/me", h.Me)

		// Forums
		protected.POST("/forums", h.CreateForum)
		protected.GET("/forums/check-existence/:memoId", h.CheckForumExistence)
		protected.GET("/forums/:id", h.GetForum)
		protected.PATCH("/forums/:id/status", h.UpdateForumStatus)

		// Messages
		protected.GET("/forums/:id/messages", h.ListMessages)
		protected.POST("/forums/:id/messages", h.PostMessage)
		protected.DELETE("/forums/:id/messages/:messageId", h.DeleteMessage)

		// Memos
		protected.POST("/memos", h.CreateMemo)
		protected.GET("/memos", h.ListMemos)
		protected.GET("/memos/:id", h.GetMemo)
		protected.PATCH("/memos/:id/status", h.UpdateMemoStatus)
		protected.PATCH("/memos/:id/instruction", h.AssignInstruction)

		// Notifications
		protected.GET("/notifications", h.ListNotifications)
		protected.GET("/notifications/unread-count", h.UnreadNotifications)
		protected.PATCH("/notifications/:id/read", h.MarkNotificationRead)
		protected.DELETE("/notifications/:id", h.DeleteNotification)

		// Presidency documents
		protected.POST("/puntos-cuenta", h.CreatePuntoCuenta)
		protected.GET("/puntos-cuenta", h.ListPuntosCuenta)
		protected.GET("/puntos-cuenta/:id", h.GetPuntoCuenta)
		protected.PATCH("/puntos-cuenta/:id/status", h.UpdatePuntoCuentaStatus)

		protected.POST("/oficios-presidencia", h.CreateOficio)
		protected.GET("/oficios-presidencia", h.ListOficios)
		protected.GET("/oficios-presidencia/:id", h.GetOficio)
		protected.PATCH("/oficios-presidencia/:id/status", h.UpdateOficioStatus)
	}
}

// corsMiddleware returns the CORS chain: allow all origins when none are
// configured, otherwise echo allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExpose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error. maxBytes <= 0 disables the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
