package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"topic-rush/internal/db"
	"topic-rush/internal/game"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// fakeService stubs GameService per method. Unset methods answer not found.
type fakeService struct {
	createGame     func(ctx context.Context, slug string, maxPlayers, rounds int) (*db.Game, error)
	getGame        func(ctx context.Context, gameID uint) (*db.Game, error)
	getGameBySlug  func(ctx context.Context, slug string) (*db.Game, error)
	getActiveGames func(ctx context.Context, limit int) ([]db.Game, error)
	addPlayer      func(ctx context.Context, gameID uint, playerID string, isHost bool) (*db.Player, error)
	joinGame       func(ctx context.Context, gameID uint, playerID string) error
	leaveGame      func(ctx context.Context, gameID uint, playerID string) error
	playersInGame  func(ctx context.Context, gameID uint) ([]db.Player, error)
	startGame      func(ctx context.Context, gameID uint, requesterID string) error
	finishGame     func(ctx context.Context, gameID uint, requesterID string) error
	startNextRound func(ctx context.Context, gameID uint, requesterID string) (*db.Round, error)
	finishRound    func(ctx context.Context, gameID uint, requesterID, first, second, third string) (*db.Round, error)
	submitResult   func(ctx context.Context, gameID uint, requesterID, first, second, third string, receivedAt time.Time) (*db.PlayerRoundScore, error)
	playerStats    func(ctx context.Context, gameID uint, playerID string) (*game.PlayerStats, error)
	allStats       func(ctx context.Context, gameID uint) ([]game.PlayerStats, error)
	roundStats     func(ctx context.Context, gameID uint, number int, playerID string) (*game.RoundStats, error)
	allRoundStats  func(ctx context.Context, gameID uint, number int) ([]game.RoundStats, error)
	lifetimeScore  func(ctx context.Context, playerID string) (*db.PlayerLifetimeScore, error)
}

func notFoundErr(message string) error {
	return &game.Error{Message: message, Code: game.CodeNotFound}
}

func (f *fakeService) CreateGame(ctx context.Context, slug string, maxPlayers, rounds int) (*db.Game, error) {
	if f.createGame == nil {
		return nil, notFoundErr("game not found")
	}
	return f.createGame(ctx, slug, maxPlayers, rounds)
}

func (f *fakeService) GetGame(ctx context.Context, gameID uint) (*db.Game, error) {
	if f.getGame == nil {
		return nil, notFoundErr("game not found")
	}
	return f.getGame(ctx, gameID)
}

func (f *fakeService) GetGameBySlug(ctx context.Context, slug string) (*db.Game, error) {
	if f.getGameBySlug == nil {
		return nil, notFoundErr("game not found")
	}
	return f.getGameBySlug(ctx, slug)
}

func (f *fakeService) GetActiveGames(ctx context.Context, limit int) ([]db.Game, error) {
	if f.getActiveGames == nil {
		return nil, nil
	}
	return f.getActiveGames(ctx, limit)
}

func (f *fakeService) AddPlayer(ctx context.Context, gameID uint, playerID string, isHost bool) (*db.Player, error) {
	if f.addPlayer == nil {
		return nil, notFoundErr("game not found")
	}
	return f.addPlayer(ctx, gameID, playerID, isHost)
}

func (f *fakeService) JoinGame(ctx context.Context, gameID uint, playerID string) error {
	if f.joinGame == nil {
		return notFoundErr("game not found")
	}
	return f.joinGame(ctx, gameID, playerID)
}

func (f *fakeService) LeaveGame(ctx context.Context, gameID uint, playerID string) error {
	if f.leaveGame == nil {
		return notFoundErr("game not found")
	}
	return f.leaveGame(ctx, gameID, playerID)
}

func (f *fakeService) GetPlayersInGame(ctx context.Context, gameID uint) ([]db.Player, error) {
	if f.playersInGame == nil {
		return nil, notFoundErr("game not found")
	}
	return f.playersInGame(ctx, gameID)
}

func (f *fakeService) StartGame(ctx context.Context, gameID uint, requesterID string) error {
	if f.startGame == nil {
		return notFoundErr("game not found")
	}
	return f.startGame(ctx, gameID, requesterID)
}

func (f *fakeService) FinishGame(ctx context.Context, gameID uint, requesterID string) error {
	if f.finishGame == nil {
		return notFoundErr("game not found")
	}
	return f.finishGame(ctx, gameID, requesterID)
}

func (f *fakeService) StartNextRound(ctx context.Context, gameID uint, requesterID string) (*db.Round, error) {
	if f.startNextRound == nil {
		return nil, notFoundErr("game not found")
	}
	return f.startNextRound(ctx, gameID, requesterID)
}

func (f *fakeService) FinishRound(ctx context.Context, gameID uint, requesterID, first, second, third string) (*db.Round, error) {
	if f.finishRound == nil {
		return nil, notFoundErr("game not found")
	}
	return f.finishRound(ctx, gameID, requesterID, first, second, third)
}

func (f *fakeService) SubmitResult(ctx context.Context, gameID uint, requesterID, first, second, third string, receivedAt time.Time) (*db.PlayerRoundScore, error) {
	if f.submitResult == nil {
		return nil, notFoundErr("game not found")
	}
	return f.submitResult(ctx, gameID, requesterID, first, second, third, receivedAt)
}

func (f *fakeService) GetPlayerStats(ctx context.Context, gameID uint, playerID string) (*game.PlayerStats, error) {
	if f.playerStats == nil {
		return nil, notFoundErr("player not found")
	}
	return f.playerStats(ctx, gameID, playerID)
}

func (f *fakeService) GetPlayerStatsAllPlayers(ctx context.Context, gameID uint) ([]game.PlayerStats, error) {
	if f.allStats == nil {
		return nil, notFoundErr("game not found")
	}
	return f.allStats(ctx, gameID)
}

func (f *fakeService) GetPlayerRoundStats(ctx context.Context, gameID uint, number int, playerID string) (*game.RoundStats, error) {
	if f.roundStats == nil {
		return nil, notFoundErr("round not found")
	}
	return f.roundStats(ctx, gameID, number, playerID)
}

func (f *fakeService) GetPlayerRoundStatsAllPlayers(ctx context.Context, gameID uint, number int) ([]game.RoundStats, error) {
	if f.allRoundStats == nil {
		return nil, notFoundErr("round not found")
	}
	return f.allRoundStats(ctx, gameID, number)
}

func (f *fakeService) GetLifetimeScore(ctx context.Context, playerID string) (*db.PlayerLifetimeScore, error) {
	if f.lifetimeScore == nil {
		return &db.PlayerLifetimeScore{PlayerID: playerID}, nil
	}
	return f.lifetimeScore(ctx, playerID)
}
