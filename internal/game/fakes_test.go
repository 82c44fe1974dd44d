package game

import (
	"context"
	"sort"
	"time"

	"topic-rush/internal/db"
)

type playerKey struct {
	playerID string
	gameID   uint
}

type scoreKey struct {
	playerID string
	gameID   uint
	roundID  uint
}

type rollupKey struct {
	gameID   uint
	playerID string
}

// memStore is an in-memory DurableStore with the same miss/failure contract
// as the real adapter.
type memStore struct {
	nextGameID  uint
	nextRoundID uint
	games       map[uint]*db.Game
	players     map[playerKey]*db.Player
	rounds      map[uint]*db.Round
	scores      map[scoreKey]*db.PlayerRoundScore
	lifetimes   map[string]*db.PlayerLifetimeScore
	rollups     map[rollupKey]bool
}

func newMemStore() *memStore {
	return &memStore{
		games:     make(map[uint]*db.Game),
		players:   make(map[playerKey]*db.Player),
		rounds:    make(map[uint]*db.Round),
		scores:    make(map[scoreKey]*db.PlayerRoundScore),
		lifetimes: make(map[string]*db.PlayerLifetimeScore),
		rollups:   make(map[rollupKey]bool),
	}
}

func (m *memStore) CreateGame(_ context.Context, game *db.Game) error {
	m.nextGameID++
	game.ID = m.nextGameID
	copied := *game
	m.games[game.ID] = &copied
	return nil
}

func (m *memStore) FindGame(_ context.Context, id uint) (*db.Game, error) {
	game, ok := m.games[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *game
	return &copied, nil
}

func (m *memStore) FindGameBySlug(_ context.Context, slug string) (*db.Game, error) {
	for _, game := range m.games {
		if game.Slug == slug {
			copied := *game
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) UpdateGameStatus(_ context.Context, id uint, status string, winnerID *string) error {
	game, ok := m.games[id]
	if !ok {
		return db.ErrNotFound
	}
	game.Status = status
	if winnerID != nil {
		game.WinnerID = winnerID
	}
	return nil
}

func (m *memStore) FindGames(_ context.Context, ids []uint, statuses []string, limit int) ([]db.Game, error) {
	allowed := make(map[string]bool)
	for _, status := range statuses {
		allowed[status] = true
	}
	var games []db.Game
	for _, id := range ids {
		game, ok := m.games[id]
		if !ok {
			continue
		}
		if len(allowed) > 0 && !allowed[game.Status] {
			continue
		}
		games = append(games, *game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (m *memStore) CreatePlayer(_ context.Context, player *db.Player) error {
	copied := *player
	m.players[playerKey{player.PlayerID, player.GameID}] = &copied
	return nil
}

func (m *memStore) FindPlayer(_ context.Context, playerID string, gameID uint) (*db.Player, error) {
	player, ok := m.players[playerKey{playerID, gameID}]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *player
	return &copied, nil
}

func (m *memStore) FindHost(_ context.Context, gameID uint) (*db.Player, error) {
	for _, player := range m.players {
		if player.GameID == gameID && player.IsHost {
			copied := *player
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) SetPlayerLeftAt(_ context.Context, playerID string, gameID uint, at time.Time) error {
	player, ok := m.players[playerKey{playerID, gameID}]
	if !ok {
		return db.ErrNotFound
	}
	player.LeftAt = &at
	return nil
}

func (m *memStore) CreateRound(_ context.Context, round *db.Round) error {
	m.nextRoundID++
	round.ID = m.nextRoundID
	copied := *round
	m.rounds[round.ID] = &copied
	return nil
}

func (m *memStore) FindRound(_ context.Context, gameID uint, number int) (*db.Round, error) {
	for _, round := range m.rounds {
		if round.GameID == gameID && round.Number == number {
			copied := *round
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) CurrentRound(_ context.Context, gameID uint) (*db.Round, error) {
	var current *db.Round
	for _, round := range m.rounds {
		if round.GameID != gameID || round.EndedAt != nil {
			continue
		}
		if current == nil || round.Number > current.Number {
			current = round
		}
	}
	if current == nil {
		return nil, db.ErrNotFound
	}
	copied := *current
	return &copied, nil
}

func (m *memStore) CountRounds(_ context.Context, gameID uint) (int, error) {
	count := 0
	for _, round := range m.rounds {
		if round.GameID == gameID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) EndRound(_ context.Context, gameID uint, number int, at time.Time) error {
	for _, round := range m.rounds {
		if round.GameID == gameID && round.Number == number {
			round.EndedAt = &at
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *memStore) CreateRoundScore(_ context.Context, score *db.PlayerRoundScore) error {
	key := scoreKey{score.PlayerID, score.GameID, score.RoundID}
	if _, ok := m.scores[key]; ok {
		return nil
	}
	copied := *score
	m.scores[key] = &copied
	return nil
}

func (m *memStore) UpsertRoundScore(_ context.Context, score *db.PlayerRoundScore) error {
	copied := *score
	m.scores[scoreKey{score.PlayerID, score.GameID, score.RoundID}] = &copied
	return nil
}

func (m *memStore) FindRoundScore(_ context.Context, playerID string, gameID, roundID uint) (*db.PlayerRoundScore, error) {
	score, ok := m.scores[scoreKey{playerID, gameID, roundID}]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *score
	return &copied, nil
}

func (m *memStore) FindRoundScores(_ context.Context, gameID uint, playerID string, roundID uint) ([]db.PlayerRoundScore, error) {
	var scores []db.PlayerRoundScore
	for _, score := range m.scores {
		if score.GameID != gameID {
			continue
		}
		if playerID != "" && score.PlayerID != playerID {
			continue
		}
		if roundID != 0 && score.RoundID != roundID {
			continue
		}
		scores = append(scores, *score)
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].RoundID != scores[j].RoundID {
			return scores[i].RoundID < scores[j].RoundID
		}
		return scores[i].PlayerID < scores[j].PlayerID
	})
	return scores, nil
}

func (m *memStore) ApplyLifetimeScore(_ context.Context, gameID uint, playerID string, delta db.LifetimeDelta) (bool, error) {
	key := rollupKey{gameID, playerID}
	if m.rollups[key] {
		return false, nil
	}
	m.rollups[key] = true
	lifetime, ok := m.lifetimes[playerID]
	if !ok {
		lifetime = &db.PlayerLifetimeScore{PlayerID: playerID}
		m.lifetimes[playerID] = lifetime
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
	return true, nil
}

func (m *memStore) FindLifetimeScore(_ context.Context, playerID string) (*db.PlayerLifetimeScore, error) {
	lifetime, ok := m.lifetimes[playerID]
	if !ok {
		return &db.PlayerLifetimeScore{PlayerID: playerID}, nil
	}
	copied := *lifetime
	return &copied, nil
}

// memLive is an in-memory LiveStore.
type memLive struct {
	statuses map[uint]string
	counters map[uint]int
	members  map[uint]map[string]bool
	active   map[uint]bool
}

func newMemLive() *memLive {
	return &memLive{
		statuses: make(map[uint]string),
		counters: make(map[uint]int),
		members:  make(map[uint]map[string]bool),
		active:   make(map[uint]bool),
	}
}

func (m *memLive) SetStatus(_ context.Context, gameID uint, status string) error {
	m.statuses[gameID] = status
	return nil
}

func (m *memLive) Status(_ context.Context, gameID uint) (string, error) {
	return m.statuses[gameID], nil
}

func (m *memLive) DeleteStatus(_ context.Context, gameID uint) error {
	delete(m.statuses, gameID)
	return nil
}

func (m *memLive) IncrRoundCounter(_ context.Context, gameID uint) (int, error) {
	m.counters[gameID]++
	return m.counters[gameID], nil
}

func (m *memLive) RoundCounter(_ context.Context, gameID uint) (int, error) {
	return m.counters[gameID], nil
}

func (m *memLive) SetRoundCounter(_ context.Context, gameID uint, count int) error {
	m.counters[gameID] = count
	return nil
}

func (m *memLive) DeleteRoundCounter(_ context.Context, gameID uint) error {
	delete(m.counters, gameID)
	return nil
}

func (m *memLive) AddPlayer(_ context.Context, gameID uint, playerID string) error {
	if m.members[gameID] == nil {
		m.members[gameID] = make(map[string]bool)
	}
	m.members[gameID][playerID] = true
	return nil
}

func (m *memLive) RemovePlayer(_ context.Context, gameID uint, playerID string) error {
	delete(m.members[gameID], playerID)
	return nil
}

func (m *memLive) Players(_ context.Context, gameID uint) ([]string, error) {
	ids := make([]string, 0, len(m.members[gameID]))
	for playerID := range m.members[gameID] {
		ids = append(ids, playerID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memLive) DeletePlayers(_ context.Context, gameID uint) error {
	delete(m.members, gameID)
	return nil
}

func (m *memLive) IsPlayer(_ context.Context, gameID uint, playerID string) (bool, error) {
	return m.members[gameID][playerID], nil
}

func (m *memLive) AddActiveGame(_ context.Context, gameID uint) error {
	m.active[gameID] = true
	return nil
}

func (m *memLive) RemoveActiveGame(_ context.Context, gameID uint) error {
	delete(m.active, gameID)
	return nil
}

func (m *memLive) ActiveGames(_ context.Context) ([]uint, error) {
	ids := make([]uint, 0, len(m.active))
	for gameID := range m.active {
		ids = append(ids, gameID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
