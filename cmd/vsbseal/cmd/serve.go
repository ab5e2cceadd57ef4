package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/vaultsandbox/envelope-go/httpapi"
	"github.com/vaultsandbox/envelope-go/keyring"
	"github.com/vaultsandbox/envelope-go/store"
)

var (
	serveAddr    string
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sealed-email API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(serveDataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		kr, err := keyring.Open(filepath.Join(serveDataDir, "keyring.db"))
		if err != nil {
			return fmt.Errorf("failed to open keyring: %w", err)
		}
		defer kr.Close()

		signer, err := kr.Signer()
		if err != nil {
			return fmt.Errorf("failed to load signer: %w", err)
		}

		st, err := store.New(filepath.Join(serveDataDir, "mail"), signer)
		if err != nil {
			return fmt.Errorf("failed to open mail store: %w", err)
		}

		a := httpapi.New(kr.ServerInfo(), st, httpapi.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              serveAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		logger.Info("server started",
			slog.String("addr", serveAddr),
			slog.String("data_dir", serveDataDir))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", slog.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8025", "Address to listen on")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Directory for persistent data")
}
