package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"dont-get-fat/internal/apiclient"
	"dont-get-fat/internal/app"
	"dont-get-fat/internal/auth"
	"dont-get-fat/internal/cli"
	"dont-get-fat/internal/clipper"
	"dont-get-fat/internal/config"
	"dont-get-fat/internal/database"
	"dont-get-fat/internal/imagegen"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/server"
	"dont-get-fat/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	state, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("failed to open state directory: %w", err)
	}

	textGen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		defer c.Close()
	}

	localPlanner := planner.NewPlanner(textGen)
	images := imagegen.NewClient(cfg)
	metricsStore := metrics.NewStore(db.SQL)
	profiles := profile.NewRepository(db.SQL)
	history := planner.NewPlanRepository(db.SQL)

	var verifier *auth.Verifier
	if cfg.AuthJWTSecret != "" {
		verifier = auth.NewVerifier(cfg.AuthJWTSecret)
	}

	// Without local credentials, plan generation goes through a remote API server.
	var (
		generator   planner.PlanGenerator   = localPlanner
		regenerator planner.MealRegenerator = localPlanner
		pictures    cli.ImageGenerator      = images
	)
	if !cfg.HasLLMCredentials() {
		remote := apiclient.New(cfg.APIBaseURL, cfg.APIToken)
		generator, regenerator, pictures = remote, remote, remote
		log.Printf("No LLM credentials found, using API server at %s", cfg.APIBaseURL)
	}

	session := app.NewSession(cfg.UserID, app.Deps{
		Storage:     state,
		Generator:   generator,
		Regenerator: regenerator,
		Profiles:    profiles,
		Clipper:     clipper.NewClipper(textGen),
		History:     history,
		Metrics:     metricsStore,
	})
	defer session.Close()

	a := &cli.App{
		UserID:   cfg.UserID,
		Session:  session,
		Profiles: profiles,
		History:  history,
		Images:   pictures,
		Metrics:  metricsStore,
		DataDir:  cfg.DataDir,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	if verifier != nil {
		a.Tokens = verifier
	}

	a.Serve = func(ctx context.Context) error {
		api := server.New(server.Deps{
			Generator:   localPlanner,
			Regenerator: localPlanner,
			Images:      images,
			Profiles:    profiles,
			Verifier:    verifier,
			Metrics:     metricsStore,
			DataDir:     cfg.DataDir,
		})
		return serve(ctx, ":"+cfg.Port, api.Handler())
	}

	return cli.NewRootCmd(a).Execute()
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exiting")
	return nil
}
