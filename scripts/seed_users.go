package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type UsersConfig struct {
	Users []models.User `yaml:"users"`
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
		usersPath = flag.String("users", "configs/users.yaml", "path to users.yaml")
		dbPath    = flag.String("db", "./data/shotgun.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*usersPath)
	if err != nil {
		return fmt.Errorf("read users: %w", err)
	}
	var cfg UsersConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse users: %w", err)
	}
	if len(cfg.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	skipped := 0
	for i := range cfg.Users {
		u := &cfg.Users[i]
		if u.Email == "" {
			continue
		}
		if u.Role == "" {
			u.Role = models.RoleUser
		}

		_, err = db.GetUserByEmail(ctx, u.Email)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, database.ErrUserNotFound) {
			return fmt.Errorf("get %s: %w", u.Email, err)
		}
		if err = db.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create %s: %w", u.Email, err)
		}
		created++
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}
