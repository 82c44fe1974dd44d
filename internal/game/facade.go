package game

import (
	"context"
	"errors"
	"time"

	"topic-rush/internal/db"
)

// RoundStats is a player's finalized row for one round, with null fields
// defaulted for presentation.
type RoundStats struct {
	RoundID        uint   `json:"round_id"`
	Score          int    `json:"score"`
	Place          int    `json:"place"`
	IsWinner       bool   `json:"is_winner"`
	TimeToComplete int64  `json:"time_used_to_complete"`
	FirstTopic     string `json:"first_topic"`
	SecondTopic    string `json:"second_topic"`
	ThirdTopic     string `json:"third_topic"`
	StoppedRound   bool   `json:"has_stopped_game"`
}

type PlayerStats struct {
	GameID     uint         `json:"game_id"`
	PlayerID   string       `json:"player_id"`
	RoundStats []RoundStats `json:"round_stats"`
}

func roundStats(entry db.PlayerRoundScore) RoundStats {
	stats := RoundStats{
		RoundID:      entry.RoundID,
		Score:        entry.Score,
		IsWinner:     entry.IsWinner,
		FirstTopic:   entry.FirstTopic,
		SecondTopic:  entry.SecondTopic,
		ThirdTopic:   entry.ThirdTopic,
		StoppedRound: entry.StoppedRound,
	}
	if entry.Place != nil {
		stats.Place = *entry.Place
	}
	if entry.TimeToComplete != nil {
		stats.TimeToComplete = *entry.TimeToComplete
	}
	return stats
}

// CreateGame registers a new game in the waiting state and marks it active.
func (s *Service) CreateGame(ctx context.Context, slug string, maxPlayers, rounds int) (*db.Game, error) {
	if slug == "" {
		return nil, badRequest("game slug is required")
	}
	if rounds <= 0 {
		return nil, badRequest("round count must be positive")
	}
	game := &db.Game{
		Slug:       slug,
		Status:     StatusWaiting.String(),
		MaxPlayers: maxPlayers,
		Rounds:     rounds,
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		return nil, internal(err)
	}
	if err := s.live.AddActiveGame(ctx, game.ID); err != nil {
		return nil, internal(err)
	}
	return game, nil
}

func (s *Service) GetGame(ctx context.Context, gameID uint) (*db.Game, error) {
	return s.loadGame(ctx, gameID)
}

func (s *Service) GetGameBySlug(ctx context.Context, slug string) (*db.Game, error) {
	game, err := s.store.FindGameBySlug(ctx, slug)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("game not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	return game, nil
}

// GetActiveGames lists games from the active set that are still open,
// capped at limit.
func (s *Service) GetActiveGames(ctx context.Context, limit int) ([]db.Game, error) {
	ids, err := s.live.ActiveGames(ctx)
	if err != nil {
		return nil, internal(err)
	}
	if len(ids) == 0 {
		return []db.Game{}, nil
	}
	games, err := s.store.FindGames(ctx, ids, []string{
		StatusWaiting.String(), StatusPlaying.String(),
	}, limit)
	if err != nil {
		return nil, internal(err)
	}
	return games, nil
}

// AddPlayer creates the durable roster row. Re-adding an existing player
// returns the existing row. At most one host per game, enforced here rather
// than by the schema.
func (s *Service) AddPlayer(ctx context.Context, gameID uint, playerID string, isHost bool) (*db.Player, error) {
	if playerID == "" {
		return nil, badRequest("player id is required")
	}
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}

	existing, err := s.store.FindPlayer(ctx, playerID, gameID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, internal(err)
	}

	if isHost {
		_, err := s.store.FindHost(ctx, gameID)
		if err == nil {
			return nil, badRequest("host already exists")
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, internal(err)
		}
	}

	player := &db.Player{PlayerID: playerID, GameID: gameID, IsHost: isHost}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, internal(err)
	}
	return player, nil
}

// JoinGame adds the player to the live membership set. Joining is only
// legal while the game is waiting.
func (s *Service) JoinGame(ctx context.Context, gameID uint, playerID string) error {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != StatusWaiting.String() {
		return invalidState("game not in waiting state")
	}
	if err := s.live.AddPlayer(ctx, gameID, playerID); err != nil {
		return internal(err)
	}
	return nil
}

// LeaveGame removes the player from the live set and stamps the durable
// roster row. The roster row itself is never deleted.
func (s *Service) LeaveGame(ctx context.Context, gameID uint, playerID string) error {
	member, err := s.live.IsPlayer(ctx, gameID, playerID)
	if err != nil {
		return internal(err)
	}
	if !member {
		return badRequest("player not in game")
	}
	if err := s.live.RemovePlayer(ctx, gameID, playerID); err != nil {
		return internal(err)
	}
	err = s.store.SetPlayerLeftAt(ctx, playerID, gameID, time.Now().UTC())
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return internal(err)
	}
	return nil
}

// GetPlayersInGame returns the durable roster rows of the players currently
// in the live set. Live members without a roster row are skipped.
func (s *Service) GetPlayersInGame(ctx context.Context, gameID uint) ([]db.Player, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != StatusWaiting.String() && game.Status != StatusPlaying.String() {
		return nil, invalidState("game not in progress")
	}
	memberIDs, err := s.live.Players(ctx, gameID)
	if err != nil {
		return nil, internal(err)
	}
	players := make([]db.Player, 0, len(memberIDs))
	for _, playerID := range memberIDs {
		player, err := s.store.FindPlayer(ctx, playerID, gameID)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, internal(err)
		}
		players = append(players, *player)
	}
	return players, nil
}

// GetPlayerStats returns one player's rows across all rounds of a game.
func (s *Service) GetPlayerStats(ctx context.Context, gameID uint, playerID string) (*PlayerStats, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	entries, err := s.store.FindRoundScores(ctx, gameID, playerID, 0)
	if err != nil {
		return nil, internal(err)
	}
	stats := &PlayerStats{GameID: gameID, PlayerID: playerID, RoundStats: []RoundStats{}}
	for _, entry := range entries {
		stats.RoundStats = append(stats.RoundStats, roundStats(entry))
	}
	return stats, nil
}

// GetPlayerStatsAllPlayers returns every player's rows for a game, grouped
// per player.
func (s *Service) GetPlayerStatsAllPlayers(ctx context.Context, gameID uint) ([]PlayerStats, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	entries, err := s.store.FindRoundScores(ctx, gameID, "", 0)
	if err != nil {
		return nil, internal(err)
	}
	byPlayer := make(map[string]*PlayerStats)
	var order []string
	for _, entry := range entries {
		stats, ok := byPlayer[entry.PlayerID]
		if !ok {
			stats = &PlayerStats{GameID: gameID, PlayerID: entry.PlayerID, RoundStats: []RoundStats{}}
			byPlayer[entry.PlayerID] = stats
			order = append(order, entry.PlayerID)
		}
		stats.RoundStats = append(stats.RoundStats, roundStats(entry))
	}
	result := make([]PlayerStats, 0, len(order))
	for _, playerID := range order {
		result = append(result, *byPlayer[playerID])
	}
	return result, nil
}

// GetPlayerRoundStats returns one player's row for one round, addressed by
// round number.
func (s *Service) GetPlayerRoundStats(ctx context.Context, gameID uint, number int, playerID string) (*RoundStats, error) {
	round, err := s.findRound(ctx, gameID, number)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.FindRoundScore(ctx, playerID, gameID, round.ID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("player not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	stats := roundStats(*entry)
	return &stats, nil
}

// GetPlayerRoundStatsAllPlayers returns every player's row for one round.
func (s *Service) GetPlayerRoundStatsAllPlayers(ctx context.Context, gameID uint, number int) ([]RoundStats, error) {
	round, err := s.findRound(ctx, gameID, number)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.FindRoundScores(ctx, gameID, "", round.ID)
	if err != nil {
		return nil, internal(err)
	}
	result := make([]RoundStats, 0, len(entries))
	for _, entry := range entries {
		result = append(result, roundStats(entry))
	}
	return result, nil
}

// GetLifetimeScore returns the cross-game aggregate for a player, zeroed
// when the player has never finished a game.
func (s *Service) GetLifetimeScore(ctx context.Context, playerID string) (*db.PlayerLifetimeScore, error) {
	lifetime, err := s.store.FindLifetimeScore(ctx, playerID)
	if err != nil {
		return nil, internal(err)
	}
	return lifetime, nil
}

func (s *Service) findRound(ctx context.Context, gameID uint, number int) (*db.Round, error) {
	round, err := s.store.FindRound(ctx, gameID, number)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("round not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	return round, nil
}
