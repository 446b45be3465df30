package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/api"
	"github.com/jmcleod/tokenvault/client"
	"github.com/jmcleod/tokenvault/internal/metrics"
	"github.com/jmcleod/tokenvault/vault"
)

var (
	listenAddr       string
	tlsCert          string
	tlsKey           string
	transportKeyFile string
)

// rateLimitSweepInterval is how often stale decrypt rate-limit records go.
const rateLimitSweepInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local vault agent",
	Long: `Serves the vault API on /api/v1, Prometheus metrics on /metrics, and an
authenticating proxy to the console backend on /backend/. The session lasts
as long as the process unless a session file is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("listen") {
			addr = listenAddr
		}
		transportKey, err := readKeyFile(transportKeyFile)
		if err != nil {
			return err
		}
		backend, err := cfg.Backend()
		if err != nil {
			return err
		}

		m := metrics.New()
		s, err := openSession(
			vault.WithSweepInterval(cfg.SweepInterval),
			vault.WithMetrics(m),
		)
		if err != nil {
			return err
		}
		defer s.Close()

		var apiOpts []api.Option
		apiOpts = append(apiOpts, api.WithLogger(logger))
		if transportKey != nil {
			apiOpts = append(apiOpts, api.WithTransportKey(transportKey))
		}
		a := api.New(s.vault, apiOpts...)

		proxy := httputil.NewSingleHostReverseProxy(backend)
		proxy.Transport = &client.Transport{Source: s.vault}

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Handle("/metrics", m.Handler())
		r.Mount("/api/v1", a.Router())
		r.With(api.SecurityHeaders, a.CSRFMiddleware).
			Handle("/backend/*", http.StripPrefix("/backend", proxy))

		var tlsConfig *tls.Config
		if tlsCert != "" && tlsKey != "" {
			cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			tlsConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           r,
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go sweepRateLimits(ctx, a)

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if tlsConfig != nil {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner(cmd.ErrOrStderr())
		logger.Info("tokenvault agent started",
			"addr", addr,
			"tls", tlsConfig != nil,
			"data_dir", cfg.DataDir,
			"vault_instance", s.vault.ID(),
		)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func sweepRateLimits(ctx context.Context, a *api.API) {
	ticker := time.NewTicker(rateLimitSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SweepRateLimits()
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (TOKENVAULT_LISTEN_ADDR)")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
	serveCmd.Flags().StringVar(&transportKeyFile, "transport-key-file", "", "File holding the provider-token transport key shared with the backend")
}
