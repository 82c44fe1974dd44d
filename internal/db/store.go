package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound reports an entity lookup miss, as opposed to a store failure.
var ErrNotFound = errors.New("not found")

// Store executes the logical read/write operations of the durable store.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Store) CreateGame(ctx context.Context, game *Game) error {
	return s.conn.WithContext(ctx).Create(game).Error
}

func (s *Store) FindGame(ctx context.Context, id uint) (*Game, error) {
	var game Game
	if err := s.conn.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &game, nil
}

func (s *Store) FindGameBySlug(ctx context.Context, slug string) (*Game, error) {
	var game Game
	if err := s.conn.WithContext(ctx).Where("slug = ?", slug).First(&game).Error; err != nil {
		return nil, notFound(err)
	}
	return &game, nil
}

// UpdateGameStatus sets the durable status and, when winnerID is non-nil,
// the winner.
func (s *Store) UpdateGameStatus(ctx context.Context, id uint, status string, winnerID *string) error {
	updates := map[string]any{"status": status}
	if winnerID != nil {
		updates["winner_id"] = *winnerID
	}
	result := s.conn.WithContext(ctx).Model(&Game{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FindGames(ctx context.Context, ids []uint, statuses []string, limit int) ([]Game, error) {
	var games []Game
	query := s.conn.WithContext(ctx).Where("id IN ?", ids)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("id").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *Player) error {
	return s.conn.WithContext(ctx).Create(player).Error
}

func (s *Store) FindPlayer(ctx context.Context, playerID string, gameID uint) (*Player, error) {
	var player Player
	err := s.conn.WithContext(ctx).
		Where("player_id = ? AND game_id = ?", playerID, gameID).
		First(&player).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &player, nil
}

// FindHost returns the host row for a game, or ErrNotFound when no host
// has been registered yet.
func (s *Store) FindHost(ctx context.Context, gameID uint) (*Player, error) {
	var player Player
	err := s.conn.WithContext(ctx).
		Where("game_id = ? AND is_host = ?", gameID, true).
		First(&player).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &player, nil
}

func (s *Store) SetPlayerLeftAt(ctx context.Context, playerID string, gameID uint, at time.Time) error {
	result := s.conn.WithContext(ctx).Model(&Player{}).
		Where("player_id = ? AND game_id = ?", playerID, gameID).
		Update("left_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateRound(ctx context.Context, round *Round) error {
	return s.conn.WithContext(ctx).Create(round).Error
}

func (s *Store) FindRound(ctx context.Context, gameID uint, number int) (*Round, error) {
	var round Round
	err := s.conn.WithContext(ctx).
		Where("game_id = ? AND number = ?", gameID, number).
		First(&round).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &round, nil
}

// CurrentRound returns the in-progress round, the single round per game
// whose ended_at is still null.
func (s *Store) CurrentRound(ctx context.Context, gameID uint) (*Round, error) {
	var round Round
	err := s.conn.WithContext(ctx).
		Where("game_id = ? AND ended_at IS NULL", gameID).
		Order("number DESC").
		First(&round).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &round, nil
}

func (s *Store) CountRounds(ctx context.Context, gameID uint) (int, error) {
	var count int64
	err := s.conn.WithContext(ctx).Model(&Round{}).
		Where("game_id = ?", gameID).
		Count(&count).Error
	return int(count), err
}

func (s *Store) EndRound(ctx context.Context, gameID uint, number int, at time.Time) error {
	result := s.conn.WithContext(ctx).Model(&Round{}).
		Where("game_id = ? AND number = ?", gameID, number).
		Update("ended_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertRoundScore creates the (player, game, round) score row or replaces
// its submitted fields when the row already exists.
func (s *Store) UpsertRoundScore(ctx context.Context, score *PlayerRoundScore) error {
	return s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}, {Name: "game_id"}, {Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "time_to_complete",
			"first_topic", "second_topic", "third_topic",
			"stopped_round", "updated_at",
		}),
	}).Create(score).Error
}

func (s *Store) CreateRoundScore(ctx context.Context, score *PlayerRoundScore) error {
	return s.conn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(score).Error
}

func (s *Store) FindRoundScore(ctx context.Context, playerID string, gameID, roundID uint) (*PlayerRoundScore, error) {
	var score PlayerRoundScore
	err := s.conn.WithContext(ctx).
		Where("player_id = ? AND game_id = ? AND round_id = ?", playerID, gameID, roundID).
		First(&score).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &score, nil
}

// FindRoundScores returns the score rows of a game, optionally narrowed to a
// player and/or a round. Empty playerID and zero roundID mean "all".
func (s *Store) FindRoundScores(ctx context.Context, gameID uint, playerID string, roundID uint) ([]PlayerRoundScore, error) {
	query := s.conn.WithContext(ctx).Where("game_id = ?", gameID)
	if playerID != "" {
		query = query.Where("player_id = ?", playerID)
	}
	if roundID != 0 {
		query = query.Where("round_id = ?", roundID)
	}
	var scores []PlayerRoundScore
	if err := query.Order("round_id, player_id").Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

// LifetimeDelta is one player's aggregated result for a finished game.
type LifetimeDelta struct {
	GameScore int
	BestRound int
	Won       bool
}

// ApplyLifetimeScore folds one player's game result into their lifetime
// aggregate. The update and its roll-up marker commit in one transaction; a
// (game, player) pair already marked is skipped, so retrying after a partial
// failure never double-counts. Reports whether the delta was applied.
func (s *Store) ApplyLifetimeScore(ctx context.Context, gameID uint, playerID string, delta LifetimeDelta) (bool, error) {
	applied := false
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marker := ScoreRollup{GameID: gameID, PlayerID: playerID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&marker)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil // already rolled up
		}

		var lifetime PlayerLifetimeScore
		err := tx.Where("player_id = ?", playerID).First(&lifetime).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			lifetime = PlayerLifetimeScore{PlayerID: playerID}
		} else if err != nil {
			return err
		}

		lifetime.TotalXP += delta.GameScore
		lifetime.GamesPlayed++
		if delta.Won {
			lifetime.GamesWon++
		} else {
			lifetime.GamesLost++
		}
		if delta.GameScore > lifetime.HighestGameScore {
			lifetime.HighestGameScore = delta.GameScore
		}
		if delta.BestRound > lifetime.HighestRoundScore {
			lifetime.HighestRoundScore = delta.BestRound
		}

		if err := tx.Save(&lifetime).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *Store) FindLifetimeScore(ctx context.Context, playerID string) (*PlayerLifetimeScore, error) {
	var lifetime PlayerLifetimeScore
	err := s.conn.WithContext(ctx).Where("player_id = ?", playerID).First(&lifetime).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PlayerLifetimeScore{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &lifetime, nil
}
