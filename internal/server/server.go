package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"topic-rush/internal/config"
	"topic-rush/internal/db"
	"topic-rush/internal/events"
	"topic-rush/internal/game"
)

// GameService is the slice of the session engine the transport needs.
// *game.Service satisfies it.
type GameService interface {
	CreateGame(ctx context.Context, slug string, maxPlayers, rounds int) (*db.Game, error)
	GetGame(ctx context.Context, gameID uint) (*db.Game, error)
	GetGameBySlug(ctx context.Context, slug string) (*db.Game, error)
	GetActiveGames(ctx context.Context, limit int) ([]db.Game, error)
	AddPlayer(ctx context.Context, gameID uint, playerID string, isHost bool) (*db.Player, error)
	JoinGame(ctx context.Context, gameID uint, playerID string) error
	LeaveGame(ctx context.Context, gameID uint, playerID string) error
	GetPlayersInGame(ctx context.Context, gameID uint) ([]db.Player, error)
	StartGame(ctx context.Context, gameID uint, requesterID string) error
	FinishGame(ctx context.Context, gameID uint, requesterID string) error
	StartNextRound(ctx context.Context, gameID uint, requesterID string) (*db.Round, error)
	FinishRound(ctx context.Context, gameID uint, requesterID, firstTopic, secondTopic, thirdTopic string) (*db.Round, error)
	SubmitResult(ctx context.Context, gameID uint, requesterID, firstTopic, secondTopic, thirdTopic string, receivedAt time.Time) (*db.PlayerRoundScore, error)
	GetPlayerStats(ctx context.Context, gameID uint, playerID string) (*game.PlayerStats, error)
	GetPlayerStatsAllPlayers(ctx context.Context, gameID uint) ([]game.PlayerStats, error)
	GetPlayerRoundStats(ctx context.Context, gameID uint, number int, playerID string) (*game.RoundStats, error)
	GetPlayerRoundStatsAllPlayers(ctx context.Context, gameID uint, number int) ([]game.RoundStats, error)
	GetLifetimeScore(ctx context.Context, playerID string) (*db.PlayerLifetimeScore, error)
}

type Server struct {
	svc    GameService
	bus    *events.Bus
	ws     *wsHub
	cfg    config.Config
	subsMu sync.Mutex
	subs   map[uint]bool
}

// New builds the HTTP/WebSocket front end. bus may be nil when no
// cross-instance fan-out is configured.
func New(svc GameService, bus *events.Bus, cfg config.Config) *Server {
	return &Server{
		svc:  svc,
		bus:  bus,
		ws:   newWSHub(),
		cfg:  cfg,
		subs: make(map[uint]bool),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /api/games/{id}/players", s.handleAddPlayer)
	mux.HandleFunc("GET /api/games/{id}/players", s.handleGetPlayers)
	mux.HandleFunc("GET /api/games/{id}/stats", s.handleGameStats)
	mux.HandleFunc("GET /api/games/{id}/rounds/{number}/stats", s.handleRoundStats)
	mux.HandleFunc("GET /api/players/{player_id}/score", s.handleLifetimeScore)
	mux.HandleFunc("GET /ws/games/{id}", s.handleWebsocket)
	return mux
}
