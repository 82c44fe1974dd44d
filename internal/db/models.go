package db

import "time"

type Game struct {
	ID         uint      `gorm:"primaryKey"`
	Slug       string    `gorm:"size:64;uniqueIndex;not null"`
	Status     string    `gorm:"size:32;not null"`
	WinnerID   *string   `gorm:"size:64"`
	MaxPlayers int       `gorm:"not null;default:0"`
	Rounds     int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type Player struct {
	PlayerID  string     `gorm:"primaryKey;size:64"`
	GameID    uint       `gorm:"primaryKey;index"`
	IsHost    bool       `gorm:"not null;default:false"`
	LeftAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Round struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null;uniqueIndex:idx_rounds_game_number"`
	Number    int       `gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	Topic     string    `gorm:"size:100;not null"`
	StartedAt time.Time `gorm:"not null"`
	EndedAt   *time.Time
}

type PlayerRoundScore struct {
	PlayerID       string `gorm:"primaryKey;size:64"`
	GameID         uint   `gorm:"primaryKey;index"`
	RoundID        uint   `gorm:"primaryKey"`
	Score          int    `gorm:"not null;default:0"`
	Place          *int
	IsWinner       bool `gorm:"not null;default:false"`
	TimeToComplete *int64
	FirstTopic     string    `gorm:"size:100"`
	SecondTopic    string    `gorm:"size:100"`
	ThirdTopic     string    `gorm:"size:100"`
	StoppedRound   bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type PlayerLifetimeScore struct {
	PlayerID          string    `gorm:"primaryKey;size:64"`
	TotalXP           int       `gorm:"not null;default:0"`
	HighestGameScore  int       `gorm:"not null;default:0"`
	HighestRoundScore int       `gorm:"not null;default:0"`
	GamesPlayed       int       `gorm:"not null;default:0"`
	GamesWon          int       `gorm:"not null;default:0"`
	GamesLost         int       `gorm:"not null;default:0"`
	GamesTop3         int       `gorm:"not null;default:0"`
	GamesBottom3      int       `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// ScoreRollup marks a (game, player) pair whose round scores have already been
// folded into the lifetime aggregate, so a retried roll-up after a partial
// failure skips it instead of double-counting.
type ScoreRollup struct {
	GameID    uint      `gorm:"primaryKey"`
	PlayerID  string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}
