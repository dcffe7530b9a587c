package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/config"
	"github.com/equiptrack/auth-service/internal/googleauth"
	"github.com/equiptrack/auth-service/internal/handler"
	"github.com/equiptrack/auth-service/internal/mailer"
	"github.com/equiptrack/auth-service/internal/repository"
	"github.com/equiptrack/auth-service/internal/service"
	"github.com/equiptrack/auth-service/internal/utils"
	"github.com/equiptrack/auth-service/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

// handlers groups the HTTP handlers wired into the router
type handlers struct {
	registration *handler.RegistrationHandler
	auth         *handler.AuthHandler
	reset        *handler.PasswordResetHandler
	sessions     service.SessionService
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
		cfg.JWT.RememberMeExpiry.Duration,
	)

	blacklistService := service.NewTokenBlacklistService(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	sender := mailer.NewClient(cfg.Mailer.URL, cfg.Mailer.Timeout.Duration, infra.Logger())
	verifier := googleauth.NewClient(cfg.Google.TokenInfoURL, cfg.Google.ClientID, cfg.Google.Timeout.Duration, infra.Logger())

	otpService := service.NewOTPService(repos.OTP)
	limiter := service.NewAttemptLimiter(repos.Attempt, cfg.Security.LoginMaxFailures, cfg.Security.LoginWindow.Duration)

	registrationService := service.NewRegistrationService(
		repos.User,
		otpService,
		sender,
		infra.Logger(),
		cfg.OTP.RegistrationTTL.Duration,
		cfg.OTP.ResendCooldown.Duration,
		cfg.Security.BCryptCost,
	)

	loginService := service.NewLoginService(
		repos.User,
		repos.Attempt,
		limiter,
		jwtManager,
		infra.Logger(),
	)

	resetService := service.NewPasswordResetService(
		repos.User,
		otpService,
		sender,
		infra.Logger(),
		cfg.OTP.ResetTTL.Duration,
		cfg.OTP.ResendCooldown.Duration,
		cfg.OTP.ResetSessionTTL.Duration,
		cfg.Security.BCryptCost,
	)

	googleService := service.NewGoogleAuthService(
		repos.User,
		repos.GoogleToken,
		repos.Attempt,
		verifier,
		jwtManager,
		infra.Logger(),
		cfg.Security.BCryptCost,
	)

	sessionService := service.NewSessionService(repos.User, jwtManager, blacklistService, infra.Logger())

	h := handlers{
		registration: handler.NewRegistrationHandler(registrationService),
		auth:         handler.NewAuthHandler(loginService, googleService, sessionService, cfg.Google.ClientID),
		reset:        handler.NewPasswordResetHandler(resetService),
		sessions:     sessionService,
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("auth-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	// Coarse per-IP throttle on the endpoints that send email or check
	// credentials. The attempt-ledger limiter inside the login service is
	// the finer, identifier-aware layer.
	throttle := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
	)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			register := auth.Group("/register")
			{
				register.POST("/validate", h.registration.ValidateDetails)
				register.POST("/send-otp", throttle, h.registration.SendOTP)
				register.POST("/verify-otp", h.registration.VerifyOTP)
				register.POST("/resend-otp", throttle, h.registration.ResendOTP)
				register.POST("/create-password", h.registration.CreatePassword)
			}

			auth.POST("/login", throttle, h.auth.Login)
			auth.POST("/admin/login", throttle, h.auth.AdminLogin)
			auth.POST("/google", throttle, h.auth.GoogleAuth)
			auth.GET("/google/config", h.auth.GoogleConfig)

			reset := auth.Group("/password-reset")
			{
				reset.POST("/request", throttle, h.reset.Request)
				reset.POST("/verify", h.reset.Verify)
				reset.POST("/reset", h.reset.Reset)
			}

			auth.POST("/password-strength", h.auth.PasswordStrength)
			auth.POST("/logout", handler.AuthMiddleware(h.sessions), h.auth.Logout)
			auth.GET("/me", handler.AuthMiddleware(h.sessions), h.auth.GetMe)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
