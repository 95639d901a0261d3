package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"guesthouse/internal/config"
	"guesthouse/internal/database"
	"guesthouse/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type RoomsConfig struct {
	Rooms []models.Room `yaml:"rooms"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		roomsPath = flag.String("rooms", "configs/rooms.yaml", "path to rooms.yaml")
		dbPath    = flag.String("db", "./data/guesthouse.db", "path to sqlite db")
		builtin   = flag.Bool("builtin", false, "seed the built-in catalog instead of the rooms file")
	)
	flag.Parse()

	var rooms []models.Room
	if *builtin {
		for _, r := range models.FallbackRooms() {
			rooms = append(rooms, *r)
		}
	} else {
		data, err := os.ReadFile(*roomsPath)
		if err != nil {
			return fmt.Errorf("read rooms: %w", err)
		}
		var cfg RoomsConfig
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse rooms: %w", err)
		}
		rooms = cfg.Rooms
	}
	if len(rooms) == 0 {
		return fmt.Errorf("no rooms to seed")
	}
	if err := config.ValidateRooms(rooms); err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	updated := 0
	for _, r := range rooms {
		existing, err := db.FindRoom(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("get %s: %w", r.ID, err)
		}
		if existing == nil {
			created++
		} else {
			updated++
		}
	}
	if err := db.SyncRooms(ctx, rooms); err != nil {
		return fmt.Errorf("sync rooms: %w", err)
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
