package server

import (
	"log"
	"net/http"
	"strconv"

	"topic-rush/internal/db"
)

type createGameRequest struct {
	Slug       string `json:"slug"`
	MaxPlayers int    `json:"max_players"`
	Rounds     int    `json:"rounds"`
}

type addPlayerRequest struct {
	PlayerID string `json:"player_id"`
	IsHost   bool   `json:"is_host"`
}

type gameResponse struct {
	ID         uint    `json:"id"`
	Slug       string  `json:"slug"`
	Status     string  `json:"status"`
	WinnerID   *string `json:"winner_id,omitempty"`
	MaxPlayers int     `json:"max_players"`
	Rounds     int     `json:"rounds"`
}

type playerResponse struct {
	PlayerID string `json:"player_id"`
	GameID   uint   `json:"game_id"`
	IsHost   bool   `json:"is_host"`
}

type lifetimeScoreResponse struct {
	PlayerID          string `json:"player_id"`
	TotalXP           int    `json:"total_xp"`
	HighestGameScore  int    `json:"highest_game_score"`
	HighestRoundScore int    `json:"highest_round_score"`
	GamesPlayed       int    `json:"games_played"`
	GamesWon          int    `json:"games_won"`
	GamesLost         int    `json:"games_lost"`
}

func gameView(game *db.Game) gameResponse {
	return gameResponse{
		ID:         game.ID,
		Slug:       game.Slug,
		Status:     game.Status,
		WinnerID:   game.WinnerID,
		MaxPlayers: game.MaxPlayers,
		Rounds:     game.Rounds,
	}
}

func playerView(player *db.Player) playerResponse {
	return playerResponse{
		PlayerID: player.PlayerID,
		GameID:   player.GameID,
		IsHost:   player.IsHost,
	}
}

func parseGameID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	game, err := s.svc.CreateGame(r.Context(), req.Slug, req.MaxPlayers, req.Rounds)
	if err != nil {
		writeGameError(w, err)
		return
	}
	log.Printf("game created game_id=%d slug=%s rounds=%d", game.ID, game.Slug, game.Rounds)
	writeJSON(w, http.StatusCreated, gameView(game))
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	if slug := r.URL.Query().Get("slug"); slug != "" {
		game, err := s.svc.GetGameBySlug(r.Context(), slug)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gameView(game))
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	games, err := s.svc.GetActiveGames(r.Context(), limit)
	if err != nil {
		writeGameError(w, err)
		return
	}
	views := make([]gameResponse, 0, len(games))
	for i := range games {
		views = append(views, gameView(&games[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	game, err := s.svc.GetGame(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameView(game))
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	var req addPlayerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	player, err := s.svc.AddPlayer(r.Context(), gameID, req.PlayerID, req.IsHost)
	if err != nil {
		writeGameError(w, err)
		return
	}
	log.Printf("player added game_id=%d player_id=%s host=%t", gameID, player.PlayerID, player.IsHost)
	writeJSON(w, http.StatusCreated, playerView(player))
}

func (s *Server) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	players, err := s.svc.GetPlayersInGame(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	views := make([]playerResponse, 0, len(players))
	for i := range players {
		views = append(views, playerView(&players[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGameStats(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if playerID := r.URL.Query().Get("player_id"); playerID != "" {
		stats, err := s.svc.GetPlayerStats(r.Context(), gameID, playerID)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}
	stats, err := s.svc.GetPlayerStatsAllPlayers(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRoundStats(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "invalid round number")
		return
	}
	if playerID := r.URL.Query().Get("player_id"); playerID != "" {
		stats, err := s.svc.GetPlayerRoundStats(r.Context(), gameID, number, playerID)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}
	stats, err := s.svc.GetPlayerRoundStatsAllPlayers(r.Context(), gameID, number)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLifetimeScore(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	score, err := s.svc.GetLifetimeScore(r.Context(), playerID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lifetimeScoreResponse{
		PlayerID:          playerID,
		TotalXP:           score.TotalXP,
		HighestGameScore:  score.HighestGameScore,
		HighestRoundScore: score.HighestRoundScore,
		GamesPlayed:       score.GamesPlayed,
		GamesWon:          score.GamesWon,
		GamesLost:         score.GamesLost,
	})
}
