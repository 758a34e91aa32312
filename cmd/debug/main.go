package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/VoidMesh/lethal-empire/cmd/debug/models"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/config"
	"github.com/VoidMesh/lethal-empire/internal/db"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/logging"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

func main() {
	dbPath := flag.String("db", "", "Path to the SQLite database (empty keeps the world in memory)")
	seed := flag.Int64("seed", 0, "World seed (0 picks one from the clock)")
	tuningPath := flag.String("tuning", "", "Path to a game tuning YAML file")
	startView := flag.String("view", "menu", "Starting view (menu, map, workers, database, overview)")
	logLevel := flag.String("log", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logging.Configure(logging.Options{Level: *logLevel, Format: "text"})

	// The TUI owns the terminal, so logs only go to a file when asked for.
	if len(os.Getenv("DEBUG")) > 0 {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		defer f.Close()
		logging.GetLogger().SetOutput(f)
	} else {
		logging.GetLogger().SetOutput(io.Discard)
	}

	tuning, err := config.LoadTuning(*tuningPath)
	if err != nil {
		log.Fatal("Failed to load game tuning", "path", *tuningPath, "error", err)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	var (
		store *db.Store
		world *game.World
	)
	if *dbPath != "" {
		conn, err := db.Open(config.DatabaseConfig{Path: *dbPath, MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			log.Fatal("Failed to open database", "error", err, "path", *dbPath)
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

		store = db.NewStore(conn, codec)
		world, err = game.New(*seed, tuning, store, store)
		if err != nil {
			log.Fatal("Failed to create world", "error", err)
		}
	} else {
		world, err = game.New(*seed, tuning, nil, nil)
		if err != nil {
			log.Fatal("Failed to create world", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := world.Start(ctx); err != nil {
		log.Fatal("Failed to start world", "error", err)
	}
	go func() {
		if err := world.Run(ctx, config.GameConfig{TickRate: 20}.TickInterval()); err != nil {
			log.Error("Simulation loop stopped", "error", err)
		}
	}()

	app := models.NewApp(world, store, *startView)
	program := tea.NewProgram(app, tea.WithAltScreen())

	log.Info("Starting Lethal Empire debug tool", "db_path", *dbPath, "seed", *seed, "start_view", *startView)

	if _, err := program.Run(); err != nil {
		log.Fatal("Error running debug tool", "error", err)
	}

	cancel()
	if store != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		if err := world.Save(saveCtx); err != nil {
			log.Error("Failed to save world", "error", err)
		}
	}
}
