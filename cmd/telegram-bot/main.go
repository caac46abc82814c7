package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dont-get-fat/internal/app"
	"dont-get-fat/internal/clipper"
	"dont-get-fat/internal/config"
	"dont-get-fat/internal/database"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/storage"
	"dont-get-fat/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateTelegram(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// 2. LLM
	textGen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		defer c.Close()
	}
	if !cfg.HasLLMCredentials() {
		log.Printf("Warning: no credentials for LLM provider %q, plan generation will fail", cfg.LLMProvider)
	}

	// 3. Database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	mealPlanner := planner.NewPlanner(textGen)

	// 4. Telegram Bot
	bot, err := telegram.NewBot(cfg, app.Deps{
		Storage:     storage.NewSQLiteStore(db.SQL),
		Generator:   mealPlanner,
		Regenerator: mealPlanner,
		Profiles:    profile.NewRepository(db.SQL),
		Clipper:     clipper.NewClipper(textGen),
		History:     planner.NewPlanRepository(db.SQL),
		Metrics:     metricsStore,
	}, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}
	defer bot.Close()

	// 5. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
