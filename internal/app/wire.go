package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trustgate/platform/internal/audit"
	"github.com/trustgate/platform/internal/auth"
	"github.com/trustgate/platform/internal/classify"
	"github.com/trustgate/platform/internal/guard"
	"github.com/trustgate/platform/internal/handler"
	"github.com/trustgate/platform/internal/infra"
	"github.com/trustgate/platform/internal/mfa"
	"github.com/trustgate/platform/internal/repository"
	"github.com/trustgate/platform/internal/service"
	"github.com/trustgate/platform/internal/trust"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Cfg    *infra.Config
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	Sink   audit.Sink
	Logger *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	policyRepo := repository.NewPolicyRepository()
	deviceRepo := repository.NewDeviceRepository()
	resourceRepo := repository.NewResourceRepository()
	scanRepo := repository.NewScanRepository()
	userRepo := repository.NewAuthUserRepository()
	auditRepo := repository.NewAuditRepository()

	// Collaborators
	classifier := classify.NewHeaderClassifier(deps.Cfg.CorporateCIDRList(), deps.Cfg.VPNCIDRList())
	verifier := NewVerifier(deps.Cfg)
	engine := trust.NewEngine()

	// Services
	scanSvc := service.NewScanService(pool, scanRepo, deviceRepo, resourceRepo,
		policyRepo, userRepo, engine, classifier, verifier, deps.Sink, logger)
	policySvc := service.NewPolicyService(pool, policyRepo, deps.Sink, logger)
	authSvc := service.NewAuthService(pool, userRepo, jwtMgr)

	// Handlers
	mfaWindow, err := time.ParseDuration(deps.Cfg.MFARateWindow)
	if err != nil {
		mfaWindow = time.Minute
	}
	scanHandler := handler.NewScanHandler(scanSvc, guard.NewRateLimiter(deps.Cfg.MFARateLimit, mfaWindow))
	authHandler := handler.NewAuthHandler(authSvc)
	policyAdmin := handler.NewPolicyAdminHandler(policySvc)
	directory := handler.NewDirectoryHandler(pool, resourceRepo, deviceRepo, auditRepo)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.Cfg.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(jwtMgr))

		r.Get("/resources", directory.ListResources)

		r.Route("/scans", func(r chi.Router) {
			r.Post("/", scanHandler.Initiate)
			r.Get("/", scanHandler.ListMine)
			r.Get("/{scanID}", scanHandler.GetStatus)
			r.Post("/{scanID}/mfa", scanHandler.VerifyMFA)
		})
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", policyAdmin.List)
			r.Post("/", policyAdmin.Create)
			r.Get("/{id}", policyAdmin.Get)
			r.Post("/{id}/activate", policyAdmin.Activate)
		})

		r.Post("/resources", directory.CreateResource)
		r.Get("/devices", directory.ListDevices)
		r.Patch("/devices/{id}/trust", directory.SetDeviceTrustLevel)
		r.Get("/audit", directory.ListAuditEvents)
	})

	return r
}

// NewVerifier selects the step-up verifier from config.
func NewVerifier(cfg *infra.Config) mfa.Verifier {
	if cfg.MFAMode == "static" {
		return mfa.StaticVerifier{}
	}
	return mfa.NewTOTPVerifier()
}
