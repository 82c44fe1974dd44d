package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"topic-rush/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var migrateCreateCmd = &cobra.Command{
	Use:   "migrate-create [name]",
	Short: "Create a new up/down migration pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrateCreate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://db/migrations", dsn)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("database migrations applied")
	return nil
}

func runMigrateCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if strings.ContainsAny(name, " ") {
		return fmt.Errorf("migration name must not contain spaces")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, name)
	upPath := filepath.Join("db", "migrations", base+".up.sql")
	downPath := filepath.Join("db", "migrations", base+".down.sql")

	if err := os.MkdirAll(filepath.Dir(upPath), 0o755); err != nil {
		return fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeMigrationFile(upPath, "-- up migration\n"); err != nil {
		return fmt.Errorf("create up migration: %w", err)
	}
	if err := writeMigrationFile(downPath, "-- down migration\n"); err != nil {
		return fmt.Errorf("create down migration: %w", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
	return nil
}

func writeMigrationFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
