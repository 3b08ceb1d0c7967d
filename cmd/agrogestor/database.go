package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/agrogestor/internal/config"
	"github.com/erazemk/agrogestor/internal/db"
	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/model"
	"github.com/erazemk/agrogestor/internal/store"
)

// openDatabase opens the configured database, creating it with an admin
// account first when the file does not exist yet.
func openDatabase(cfg config.Config) (*sql.DB, error) {
	if _, err := os.Stat(cfg.Database.Path); errors.Is(err, os.ErrNotExist) {
		database, password, err := initDatabase(cfg.Database.Path, cfg.Auth.AdminEmail)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.Database.Path, cfg.Auth.AdminEmail, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	// Idempotent; also applies pending migrations.
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring database schema: %w", err)
	}

	users, err := store.CountUsers(context.Background(), database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if users == 0 {
		slog.Warn("no active accounts; create one with register or recreate the database with init")
	}

	slog.Info("database ready", "path", cfg.Database.Path, "users", users)
	return database, nil
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminEmail string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	_, err = store.CreateUser(context.Background(), database, "Administrador", adminEmail, string(hash), model.RoleAdmin)
	if err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", model.NormalizeEmail(email))
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// backendSetting remembers which backend served the document last.
const backendSetting = "store_backend"

// newFarmStore builds the document store over the configured backend. A
// backend switch is logged since the document does not move along.
func newFarmStore(cfg config.Config, database *sql.DB, recorder farm.Recorder) *farm.Store {
	if database != nil {
		ctx := context.Background()
		prev, err := store.GetSetting(ctx, database, backendSetting)
		if err != nil {
			slog.Error("failed to read store backend setting", "error", err)
		}
		if prev != "" && prev != cfg.Store.Backend {
			slog.Warn("store backend changed; the document starts from the new backend",
				"previous", prev, "current", cfg.Store.Backend)
		}
		if prev != cfg.Store.Backend {
			if err := store.SetSetting(ctx, database, backendSetting, cfg.Store.Backend); err != nil {
				slog.Error("failed to save store backend setting", "error", err)
			}
		}
	}

	var backend farm.Backend
	switch cfg.Store.Backend {
	case config.BackendFile:
		backend = &farm.FileBackend{Path: cfg.Store.FilePath}
	default:
		backend = farm.NewSQLiteBackend(database)
	}

	slog.Info("farm store ready",
		"backend", cfg.Store.Backend,
		"clamp_balance", cfg.Inventory.ClampBalance,
	)
	return farm.NewStore(backend, farm.Options{
		ClampBalance: cfg.Inventory.ClampBalance,
		Recorder:     recorder,
	})
}
