package game

import (
	"context"
	"errors"
	"log"
	"time"

	"topic-rush/internal/db"
)

// Service composes the session state machine and the scoring engine over the
// two store boundaries. Every operation is a short-lived unit of work; no
// background task owns a game's state.
type Service struct {
	store DurableStore
	live  LiveStore
}

func NewService(store DurableStore, live LiveStore) *Service {
	return &Service{store: store, live: live}
}

func (s *Service) loadGame(ctx context.Context, gameID uint) (*db.Game, error) {
	game, err := s.store.FindGame(ctx, gameID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("game not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	return game, nil
}

func (s *Service) loadPlayer(ctx context.Context, playerID string, gameID uint) (*db.Player, error) {
	player, err := s.store.FindPlayer(ctx, playerID, gameID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("player not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	return player, nil
}

// currentRound resolves the in-progress round from the durable store (the
// round with a null end time is the source of truth) and reconciles the
// ephemeral round counter with it when the cache has drifted.
func (s *Service) currentRound(ctx context.Context, gameID uint) (*db.Round, error) {
	round, err := s.store.CurrentRound(ctx, gameID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(err)
	}
	cached, err := s.live.RoundCounter(ctx, gameID)
	if err == nil && cached != round.Number {
		if err := s.live.SetRoundCounter(ctx, gameID, round.Number); err != nil {
			log.Printf("round counter reconcile failed game_id=%d error=%v", gameID, err)
		}
	}
	return round, nil
}

// StartGame moves a game from waiting to playing. Host only. The durable
// status row and the ephemeral mirror are both updated.
func (s *Service) StartGame(ctx context.Context, gameID uint, requesterID string) error {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != StatusWaiting.String() {
		return invalidState("game is not in the correct status to be played")
	}
	player, err := s.loadPlayer(ctx, requesterID, gameID)
	if err != nil {
		return err
	}
	if !player.IsHost {
		return forbidden("only the host can start the game")
	}
	if err := s.store.UpdateGameStatus(ctx, gameID, StatusPlaying.String(), nil); err != nil {
		return internal(err)
	}
	if err := s.live.SetStatus(ctx, gameID, StatusPlaying.String()); err != nil {
		return internal(err)
	}
	return nil
}

// FinishGame moves a game to its terminal state, clears the ephemeral
// mirrors, and rolls the game's round scores into lifetime aggregates. The
// winner is the player with the highest summed score.
func (s *Service) FinishGame(ctx context.Context, gameID uint, requesterID string) error {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status == StatusFinished.String() {
		return invalidState("game is already finished")
	}
	player, err := s.loadPlayer(ctx, requesterID, gameID)
	if err != nil {
		return err
	}
	if !player.IsHost {
		return forbidden("only the host can finish the game")
	}

	scores, err := s.store.FindRoundScores(ctx, gameID, "", 0)
	if err != nil {
		return internal(err)
	}
	winnerID := gameWinner(scores)

	if err := s.store.UpdateGameStatus(ctx, gameID, StatusFinished.String(), winnerID); err != nil {
		return internal(err)
	}
	if err := s.live.DeleteStatus(ctx, gameID); err != nil {
		return internal(err)
	}
	if err := s.live.DeleteRoundCounter(ctx, gameID); err != nil {
		log.Printf("round counter cleanup failed game_id=%d error=%v", gameID, err)
	}
	if err := s.live.DeletePlayers(ctx, gameID); err != nil {
		log.Printf("player set cleanup failed game_id=%d error=%v", gameID, err)
	}
	if err := s.live.RemoveActiveGame(ctx, gameID); err != nil {
		log.Printf("active games cleanup failed game_id=%d error=%v", gameID, err)
	}
	return s.saveFinalGameScore(ctx, gameID, scores, winnerID)
}

// saveFinalGameScore folds each player's game result into their lifetime
// aggregate. The per-player write is guarded by a roll-up marker, so a retry
// after a partial failure resumes with the players not yet applied.
func (s *Service) saveFinalGameScore(ctx context.Context, gameID uint, scores []db.PlayerRoundScore, winnerID *string) error {
	for playerID, delta := range lifetimeDeltas(scores, winnerID) {
		if _, err := s.store.ApplyLifetimeScore(ctx, gameID, playerID, delta); err != nil {
			return internal(err)
		}
	}
	return nil
}

func lifetimeDeltas(scores []db.PlayerRoundScore, winnerID *string) map[string]db.LifetimeDelta {
	deltas := make(map[string]db.LifetimeDelta)
	for _, entry := range scores {
		delta := deltas[entry.PlayerID]
		delta.GameScore += entry.Score
		if entry.Score > delta.BestRound {
			delta.BestRound = entry.Score
		}
		delta.Won = winnerID != nil && entry.PlayerID == *winnerID
		deltas[entry.PlayerID] = delta
	}
	return deltas
}

// gameWinner picks the player with the highest summed score, breaking ties
// by lexicographically smallest player id. Nil when no scores exist.
func gameWinner(scores []db.PlayerRoundScore) *string {
	totals := make(map[string]int)
	for _, entry := range scores {
		totals[entry.PlayerID] += entry.Score
	}
	var winner string
	best := -1
	for playerID, total := range totals {
		if total > best || (total == best && playerID < winner) {
			winner = playerID
			best = total
		}
	}
	if best < 0 {
		return nil
	}
	return &winner
}

// StartNextRound opens the next round for a playing game. Host only. Fails
// while the previous round is still open, and once the configured round
// count is exhausted. At most one round per game has a null end time. One
// score row is created for every currently-joined player.
func (s *Service) StartNextRound(ctx context.Context, gameID uint, requesterID string) (*db.Round, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != StatusPlaying.String() {
		return nil, invalidState("game is not in the correct status to start a new round")
	}
	player, err := s.loadPlayer(ctx, requesterID, gameID)
	if err != nil {
		return nil, err
	}
	if !player.IsHost {
		return nil, forbidden("only the host can start a new round")
	}

	open, err := s.currentRound(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, invalidState("round is still in progress")
	}

	count, err := s.store.CountRounds(ctx, gameID)
	if err != nil {
		return nil, internal(err)
	}
	if count >= game.Rounds {
		return nil, invalidState("all rounds have been played")
	}

	round := &db.Round{
		GameID:    gameID,
		Number:    count + 1,
		Topic:     "",
		StartedAt: time.Now().UTC(),
	}
	if err := s.store.CreateRound(ctx, round); err != nil {
		return nil, internal(err)
	}

	counter, err := s.live.IncrRoundCounter(ctx, gameID)
	if err != nil {
		return nil, internal(err)
	}
	if counter != round.Number {
		if err := s.live.SetRoundCounter(ctx, gameID, round.Number); err != nil {
			log.Printf("round counter reconcile failed game_id=%d error=%v", gameID, err)
		}
	}

	members, err := s.live.Players(ctx, gameID)
	if err != nil {
		return nil, internal(err)
	}
	for _, playerID := range members {
		score := &db.PlayerRoundScore{
			PlayerID: playerID,
			GameID:   gameID,
			RoundID:  round.ID,
		}
		if err := s.store.CreateRoundScore(ctx, score); err != nil {
			return nil, internal(err)
		}
	}
	return round, nil
}

// FinishRound closes the in-progress round on behalf of the requester, who
// is scored as the stopper: the doubling bonus applies and the row records
// how long the round ran, in microseconds.
func (s *Service) FinishRound(ctx context.Context, gameID uint, requesterID, firstTopic, secondTopic, thirdTopic string) (*db.Round, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != StatusPlaying.String() {
		return nil, invalidState("game is not in the correct status to finish a round")
	}
	if _, err := s.loadPlayer(ctx, requesterID, gameID); err != nil {
		return nil, err
	}

	round, err := s.currentRound(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, invalidState("round has already been finished")
	}

	endedAt := time.Now().UTC()
	if err := s.store.EndRound(ctx, gameID, round.Number, endedAt); err != nil {
		return nil, internal(err)
	}
	round.EndedAt = &endedAt

	elapsed := endedAt.Sub(round.StartedAt).Microseconds()
	score := Score(round.Topic, firstTopic, secondTopic, thirdTopic, true)
	entry := &db.PlayerRoundScore{
		PlayerID:       requesterID,
		GameID:         gameID,
		RoundID:        round.ID,
		Score:          score,
		TimeToComplete: &elapsed,
		FirstTopic:     firstTopic,
		SecondTopic:    secondTopic,
		ThirdTopic:     thirdTopic,
		StoppedRound:   true,
	}
	if err := s.store.UpsertRoundScore(ctx, entry); err != nil {
		return nil, internal(err)
	}
	return round, nil
}

// SubmitResult records a player's guesses for the in-progress round. No
// stopper bonus, no duration. The receivedAt timestamp is accepted from the
// transport but not persisted.
func (s *Service) SubmitResult(ctx context.Context, gameID uint, requesterID, firstTopic, secondTopic, thirdTopic string, receivedAt time.Time) (*db.PlayerRoundScore, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != StatusPlaying.String() {
		return nil, invalidState("game is not in the correct status to send results")
	}
	member, err := s.live.IsPlayer(ctx, gameID, requesterID)
	if err != nil {
		return nil, internal(err)
	}
	if !member {
		return nil, badRequest("player is not in the game")
	}

	round, err := s.currentRound(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, invalidState("no round in progress")
	}

	entry := &db.PlayerRoundScore{
		PlayerID:    requesterID,
		GameID:      gameID,
		RoundID:     round.ID,
		Score:       Score(round.Topic, firstTopic, secondTopic, thirdTopic, false),
		FirstTopic:  firstTopic,
		SecondTopic: secondTopic,
		ThirdTopic:  thirdTopic,
	}
	if err := s.store.UpsertRoundScore(ctx, entry); err != nil {
		return nil, internal(err)
	}
	return entry, nil
}
