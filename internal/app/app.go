// Package app wires configuration, storage, domain services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/findbooks/api/internal/auth"
	"github.com/findbooks/api/internal/domain/book"
	"github.com/findbooks/api/internal/domain/order"
	"github.com/findbooks/api/internal/domain/otp"
	"github.com/findbooks/api/internal/domain/payment"
	"github.com/findbooks/api/internal/domain/reseller"
	"github.com/findbooks/api/internal/domain/user"
	"github.com/findbooks/api/internal/gateway/razorpay"
	"github.com/findbooks/api/internal/handler"
	"github.com/findbooks/api/internal/mail"
	"github.com/findbooks/api/internal/repository"
	"github.com/findbooks/api/pkg/health"
	"github.com/findbooks/api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	otpRepo := repository.NewOTPRepository(pool)
	bookRepo := repository.NewBookRepository(pool)
	subcategoryRepo := repository.NewSubcategoryRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	resellerRepo := repository.NewResellerRepository(pool)

	// External collaborators. The gateway client is constructed once and
	// shared by reference.
	tokens := auth.NewTokens([]byte(cfg.JWTSecret))
	mailer := mail.NewSender(mail.Config{
		Addr:     cfg.SMTP.Addr,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL: cfg.Gateway.BaseURL,
		KeyID:   cfg.Gateway.KeyID,
		Secret:  cfg.Gateway.Secret,
	})

	// Domain services.
	userService := user.NewService(userRepo, tokens)
	otpService := otp.NewService(otpRepo, mailer)
	bookService := book.NewService(bookRepo, subcategoryRepo)
	orderService := order.NewService(cartRepo, orderRepo)
	paymentService := payment.NewService(gateway, paymentRepo, orderRepo, []byte(cfg.Gateway.Secret))
	resellerService := reseller.NewService(resellerRepo, bookRepo)

	// HTTP surface: health endpoints + API routes on one server.
	h := handler.New(userService, otpService, bookService, orderService, paymentService, resellerService)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes(auth.Middleware(tokens)))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("findbooks-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
