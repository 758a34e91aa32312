package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/api"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/config"
	"github.com/VoidMesh/lethal-empire/internal/db"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/logging"
	"github.com/VoidMesh/lethal-empire/internal/stream"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/charmbracelet/log"
)

func main() {
	cfg := config.Load()

	logging.Configure(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Structured: cfg.Logging.Structured,
	})
	log.Debug("Configuration loaded", "server_port", cfg.Server.Port, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)

	tuning, err := config.LoadTuning(cfg.Game.TuningPath)
	if err != nil {
		log.Fatal("Failed to load game tuning", "path", cfg.Game.TuningPath, "error", err)
	}

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatal("Failed to run database migrations", "error", err)
	}

	palette, err := terrain.NewPalette(tuning.Terrain.Textures)
	if err != nil {
		log.Fatal("Invalid texture palette", "error", err)
	}
	codec, err := chunk.NewCodec(palette)
	if err != nil {
		log.Fatal("Failed to create chunk codec", "error", err)
	}
	defer codec.Close()
	store := db.NewStore(conn, codec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seed := resolveSeed(ctx, cfg.Game.Seed, store)
	world, err := game.New(seed, tuning, store, store)
	if err != nil {
		log.Fatal("Failed to create world", "error", err)
	}
	if err := world.Start(ctx); err != nil {
		log.Fatal("Failed to start world", "error", err)
	}

	hub := stream.NewHub(world)
	go hub.Run(ctx)
	subID, snapshots := world.Subscribe()
	defer world.Unsubscribe(subID)
	go hub.Forward(ctx, snapshots)

	go startBackgroundServices(ctx, world, cfg.Game)

	handler := api.NewHandler(world, store)
	router := api.SetupRoutes(handler, hub.ServeWS, api.RouteOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting Lethal Empire server", "port", cfg.Server.Port, "seed", seed)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down server...", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := world.Save(shutdownCtx); err != nil {
		log.Error("Failed to save world on shutdown", "error", err)
	} else {
		log.Info("World saved", "tick", world.Tick())
	}

	log.Info("Server exited")
}

// resolveSeed prefers an explicit seed, then the seed of the saved world, then a fresh one.
func resolveSeed(ctx context.Context, configured int64, store *db.Store) int64 {
	if configured != 0 {
		return configured
	}
	saved, ok, err := store.LoadGameState(ctx)
	if err != nil {
		log.Warn("Could not read saved world, starting a new one", "error", err)
	}
	if ok {
		log.Info("Resuming saved world", "seed", saved.Seed, "tick", saved.Tick)
		return saved.Seed
	}
	seed := time.Now().UnixNano()
	log.Info("Generated new world seed", "seed", seed)
	return seed
}

// startBackgroundServices runs the simulation loop and the periodic snapshot saver.
func startBackgroundServices(ctx context.Context, world *game.World, cfg config.GameConfig) {
	go func() {
		log.Debug("Starting simulation loop", "interval", cfg.TickInterval())
		if err := world.Run(ctx, cfg.TickInterval()); err != nil {
			log.Error("Simulation loop stopped", "error", err)
		}
	}()

	if cfg.SnapshotInterval <= 0 {
		return
	}
	saveTicker := time.NewTicker(cfg.SnapshotInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Background services stopped")
			return

		case <-saveTicker.C:
			start := time.Now()
			if err := world.Save(ctx); err != nil {
				logging.WithDuration("save", time.Since(start)).Error("Failed to save world", "error", err)
			} else {
				logging.WithDuration("save", time.Since(start)).Debug("World saved", "tick", world.Tick())
			}
		}
	}
}
