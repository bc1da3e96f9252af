package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/zoubaax/on-time/internal/api/handler"
	"github.com/zoubaax/on-time/internal/api/middleware"
	"github.com/zoubaax/on-time/internal/core/ports"
	"github.com/zoubaax/on-time/internal/infrastructure/http/handlers"

	_ "github.com/zoubaax/on-time/docs"
)

const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data: https:"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	AuthService ports.AuthService
	UserService ports.UserService
	Verifier    middleware.AccessVerifier
	Limiter     middleware.CounterStore
	// Checks are pinged by the readiness probe.
	Checks map[string]handlers.Pinger
	Log    zerolog.Logger
}

// Options shape the HTTP surface.
type Options struct {
	BasePath    string
	ClientURL   string
	BodyLimit   string
	GlobalLimit int64
	AuthLimit   int64
	LimitWindow time.Duration
	// ExposeErrors adds internal error text to 500 responses.
	ExposeErrors bool
	Swagger      bool
	// TrustedProxies may set X-Forwarded-For. When empty the client address
	// is always the socket address.
	TrustedProxies []*net.IPNet
	// MetricsRegisterer receives the HTTP request metrics. Defaults to the
	// global registry.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, opts.ExposeErrors)
	e.IPExtractor = ipExtractor(opts.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "0",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            15552000,
		ContentSecurityPolicy: contentSecurityPolicy,
		ReferrerPolicy:        "no-referrer",
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{opts.ClientURL},
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if opts.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(opts.BodyLimit))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: opts.MetricsRegisterer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints (outside the API prefix) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	if opts.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.UserService)
	userHandler := handler.NewUserHandler(deps.UserService)
	authenticate := middleware.Authenticate(deps.Verifier)
	adminOnly := middleware.AdminOnly()

	window := opts.LimitWindow
	if window <= 0 {
		window = 15 * time.Minute
	}

	api := e.Group(normalizeBasePath(opts.BasePath))
	if deps.Limiter != nil && opts.GlobalLimit > 0 {
		api.Use(middleware.RateLimit(deps.Limiter, middleware.RateLimitConfig{
			Scope:  "global",
			Limit:  opts.GlobalLimit,
			Window: window,
		}, deps.Log))
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks, deps.Log, opts.ExposeErrors)
	api.GET("/health", healthHandler.Liveness)
	api.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Auth routes ---
	auth := api.Group("/auth")
	if deps.Limiter != nil && opts.AuthLimit > 0 {
		auth.Use(middleware.RateLimit(deps.Limiter, middleware.RateLimitConfig{
			Scope:   "auth",
			Limit:   opts.AuthLimit,
			Window:  window,
			Message: "Too many authentication attempts, please try again later.",
		}, deps.Log))
	}
	auth.GET("/google", authHandler.GoogleURL)
	auth.GET("/google/signin", authHandler.GoogleURL)
	auth.POST("/callback", authHandler.Callback)
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/signin", authHandler.SignIn)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/profile", authHandler.Profile, authenticate)
	auth.POST("/signout", authHandler.SignOut, authenticate)

	// --- User routes ---
	users := api.Group("/users", authenticate)
	users.PATCH("/profile/me", userHandler.UpdateProfile)
	users.GET("", userHandler.List, adminOnly)
	users.GET("/:id", userHandler.Get, adminOnly)
	users.PATCH("/:id/role", userHandler.UpdateRole, adminOnly)
	users.DELETE("/:id", userHandler.Delete, adminOnly)

	return e
}

// ipExtractor reads X-Forwarded-For only from the given proxies. Echo's
// default ranges (loopback, link-local, private) are not trusted implicitly.
func ipExtractor(proxies []*net.IPNet) echo.IPExtractor {
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range proxies {
		opts = append(opts, echo.TrustIPRange(p))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
