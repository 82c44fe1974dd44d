package cmd

import (
	"context"
	"log"
	"net/http"
	"os"

	"topic-rush/internal/config"
	"topic-rush/internal/db"
	"topic-rush/internal/events"
	"topic-rush/internal/game"
	"topic-rush/internal/live"
	"topic-rush/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}
	liveStore, err := live.NewStore(cfg)
	if err != nil {
		return err
	}
	defer liveStore.Close()
	if err := liveStore.Ping(context.Background()); err != nil {
		return err
	}

	svc := game.NewService(db.NewStore(conn), liveStore)
	bus := events.NewBus(liveStore.Client())
	srv := server.New(svc, bus, cfg)

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("topicrush server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
