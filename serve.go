package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"schikko/config"
	"schikko/controllers"
	"schikko/drinks"
	"schikko/ledger"
	"schikko/lifecycle"
	"schikko/metrics"
	"schikko/middleware"
	"schikko/routes"
	"schikko/schikko"
	"schikko/session"
	"schikko/store"
	"schikko/throttle"
	"schikko/utils"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the lifecycle scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commonRun()
			return serveRun(cmd.Context(), logger, loadConfig(logger))
		},
	}
}

func openStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) (store.Store, error) {
	s, err := config.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "component", programName, "driver", cfg.DBDriver, "err", err)
		return nil, err
	}
	logger.Info("store opened", "component", programName, "driver", cfg.DBDriver)
	return s, nil
}

func notifier(cfg *config.Config) utils.Notifier {
	return utils.NewNotifier(utils.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.SMTPTo,
	})
}

func newJobs(s store.Store, n utils.Notifier, logger *slog.Logger, m *metrics.Metrics, cfg *config.Config) *lifecycle.Jobs {
	return lifecycle.NewJobs(s, n, lifecycle.Config{
		Location:     cfg.Location(),
		LogRetention: cfg.LogRetention,
	}, logger, m)
}

func serveRun(parent context.Context, logger *slog.Logger, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(context.Background()); err != nil {
			logger.Error("failed to close store", "component", programName, "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notices := utils.NewQueue(notifier(cfg), utils.DefaultQueueSize, utils.DefaultSendTimeout, logger)
	defer notices.Close()

	sessions := session.NewManager(s, cfg.SessionTTL, logger)
	l := ledger.New(s, logger, m)
	h := controllers.New(controllers.Deps{
		Election: schikko.New(s, sessions, schikko.Config{
			Issuer:   cfg.TOTPIssuer,
			Override: cfg.Override(),
			Location: cfg.Location(),
		}, logger, m),
		Sessions: sessions,
		Ledger:   l,
		Drinks:   drinks.New(s, l, notices, logger, m),
		Throttle: throttle.New(s, logger, m),
		Tokens:   utils.NewIdentityTokens(cfg.IdentitySecret, cfg.IdentityTTL),
		Limits: controllers.Limits{
			Login:  controllers.Limit{Count: cfg.LoginLimit, Window: cfg.LoginWindow},
			Drink:  controllers.Limit{Count: cfg.DrinkLimit, Window: cfg.DrinkWindow},
			Action: controllers.Limit{Count: cfg.ActionLimit, Window: cfg.ActionWindow},
		},
		Cookie: controllers.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure || cfg.IsProduction(),
			MaxAge: cfg.IdentityTTL,
		},
		Logger: logger,
	})

	if cfg.Override() == "" {
		logger.Warn("no override configured; the first schikko must enroll through /schikko/set", "component", programName)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(logger), middleware.PrometheusMiddleware(m))

	r.GET("/metrics", func(c *gin.Context) {
		if !slices.Contains(cfg.MetricsAllow, c.ClientIP()) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
	})

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	routes.InitializeRoutes(r, h)

	scheduler, err := lifecycle.NewScheduler(newJobs(s, notices, logger, m, cfg), cfg.AutoUnsetInterval)
	if err != nil {
		logger.Error("failed to schedule jobs", "component", programName, "err", err)
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "component", programName, "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "component", programName, "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", "component", programName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "component", programName, "err", err)
		return err
	}
	return nil
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"component", "http",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
