package game

import (
	"context"
	"time"

	"topic-rush/internal/db"
)

// DurableStore is the boundary with the relational system of record.
// *db.Store implements it; tests substitute an in-memory fake. A lookup miss
// is reported as db.ErrNotFound, any other failure is a store failure.
type DurableStore interface {
	CreateGame(ctx context.Context, game *db.Game) error
	FindGame(ctx context.Context, id uint) (*db.Game, error)
	FindGameBySlug(ctx context.Context, slug string) (*db.Game, error)
	UpdateGameStatus(ctx context.Context, id uint, status string, winnerID *string) error
	FindGames(ctx context.Context, ids []uint, statuses []string, limit int) ([]db.Game, error)

	CreatePlayer(ctx context.Context, player *db.Player) error
	FindPlayer(ctx context.Context, playerID string, gameID uint) (*db.Player, error)
	FindHost(ctx context.Context, gameID uint) (*db.Player, error)
	SetPlayerLeftAt(ctx context.Context, playerID string, gameID uint, at time.Time) error

	CreateRound(ctx context.Context, round *db.Round) error
	FindRound(ctx context.Context, gameID uint, number int) (*db.Round, error)
	CurrentRound(ctx context.Context, gameID uint) (*db.Round, error)
	CountRounds(ctx context.Context, gameID uint) (int, error)
	EndRound(ctx context.Context, gameID uint, number int, at time.Time) error

	CreateRoundScore(ctx context.Context, score *db.PlayerRoundScore) error
	UpsertRoundScore(ctx context.Context, score *db.PlayerRoundScore) error
	FindRoundScore(ctx context.Context, playerID string, gameID, roundID uint) (*db.PlayerRoundScore, error)
	FindRoundScores(ctx context.Context, gameID uint, playerID string, roundID uint) ([]db.PlayerRoundScore, error)

	ApplyLifetimeScore(ctx context.Context, gameID uint, playerID string, delta db.LifetimeDelta) (bool, error)
	FindLifetimeScore(ctx context.Context, playerID string) (*db.PlayerLifetimeScore, error)
}

// LiveStore is the boundary with the ephemeral key/value and set service.
// *live.Store implements it.
type LiveStore interface {
	SetStatus(ctx context.Context, gameID uint, status string) error
	Status(ctx context.Context, gameID uint) (string, error)
	DeleteStatus(ctx context.Context, gameID uint) error

	IncrRoundCounter(ctx context.Context, gameID uint) (int, error)
	RoundCounter(ctx context.Context, gameID uint) (int, error)
	SetRoundCounter(ctx context.Context, gameID uint, count int) error
	DeleteRoundCounter(ctx context.Context, gameID uint) error

	AddPlayer(ctx context.Context, gameID uint, playerID string) error
	RemovePlayer(ctx context.Context, gameID uint, playerID string) error
	Players(ctx context.Context, gameID uint) ([]string, error)
	DeletePlayers(ctx context.Context, gameID uint) error
	IsPlayer(ctx context.Context, gameID uint, playerID string) (bool, error)

	AddActiveGame(ctx context.Context, gameID uint) error
	RemoveActiveGame(ctx context.Context, gameID uint) error
	ActiveGames(ctx context.Context) ([]uint, error)
}
