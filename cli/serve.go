package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ourlife/backend/api"
	"ourlife/backend/middleware"
	"ourlife/backend/security"
	"ourlife/backend/telemetry"
)

type serveOptions struct {
	staticDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.staticDir, "static-dir", "", "serve the built frontend from this directory")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *serveOptions) error {
	cfg, db, err := rootOpts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.IsDevelopment() {
		log.Println("Running in development environment")
	}

	cipher, err := security.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize encryption: %w", err)
	}

	log.Println("Initializing Firebase Admin SDK...")
	client, err := middleware.InitializeFirebase(ctx, cfg.Firebase)
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	var verifier middleware.TokenVerifier
	if client != nil {
		verifier = client
	} else if cfg.IsProduction() {
		return errors.New("Firebase credentials are required in production")
	}

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("Error flushing traces: %v", err)
		}
	}()

	server := api.NewServer(db, cfg, cipher, verifier)
	if opts.staticDir != "" {
		server.ServeStatic(opts.staticDir)
	}

	srv := &http.Server{
		Handler:      server.Handler(),
		Addr:         ":" + cfg.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s...", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
