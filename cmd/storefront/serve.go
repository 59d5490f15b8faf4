package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hoka-shop/storefront/internal/config"
	"github.com/hoka-shop/storefront/internal/errors"
	"github.com/hoka-shop/storefront/internal/telemetry"
	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/server"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr     string
		backend  string
		exporter string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront state server",
		Long: `Start the HTTP server exposing the cart, dark-mode and toast APIs.

Settings come from storefront.json (or storefront.yaml); flags override them.

Examples:
  storefront serve
  storefront serve --addr=:8080
  storefront serve --backend=redis --trace=stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if backend != "" {
				cfg.Persistence.Backend = backend
			}
			if exporter != "" {
				cfg.Telemetry.Exporter = exporter
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Persistence backend: cookie, memory, file, redis or s3")
	cmd.Flags().StringVar(&exporter, "trace", "", "Trace exporter: none, stdout or otlp")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	tp, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    cfg.Name,
		ServiceVersion: version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return errors.New("S401").WithDetail("tracing setup failed").Wrap(err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Server.Addr
	srvCfg.ShutdownTimeout = cfg.ShutdownTimeout()
	srvCfg.Backend = backend
	srvCfg.ToastDuration = cfg.ToastDuration()
	srvCfg.DarkModeDefault = cfg.DarkModeDefault()
	srvCfg.Tracing = tp.Enabled()
	srvCfg.Logger = logger
	srvCfg.Cookie = persist.CookieOptions{
		Path:     cfg.Cookie.Path,
		Domain:   cfg.Cookie.Domain,
		MaxAge:   cfg.Cookie.MaxAge,
		Secure:   cfg.Cookie.Secure,
		HTTPOnly: cfg.Cookie.HTTPOnly,
		SameSite: cfg.SameSite(),
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		srvCfg.CheckOrigin = server.AllowOrigins(cfg.Server.AllowedOrigins...)
	}
	if !cfg.Metrics.Disabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		srvCfg.Registry = reg
		srvCfg.MetricsNamespace = cfg.Metrics.Namespace
	}

	out := cmd.OutOrStdout()
	printBanner(out)
	info(out, "backend:   %s", cfg.Persistence.Backend)
	info(out, "tracing:   %s", cfg.Telemetry.Exporter)
	info(out, "listening: %s", cfg.Server.Addr)

	if err := server.New(srvCfg).Run(ctx); err != nil {
		return errors.New("S401").Wrap(err)
	}
	return nil
}
