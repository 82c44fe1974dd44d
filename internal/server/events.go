package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"topic-rush/internal/events"
	"topic-rush/internal/game"

	"github.com/gorilla/websocket"
)

// Inbound event names accepted over the game websocket.
const (
	eventJoinGame        = "join_game"
	eventLeaveGame       = "leave_game"
	eventStartGame       = "start_game"
	eventFinishRound     = "finish_round"
	eventStartNextRound  = "start_next_round"
	eventFinishGame      = "finish_game"
	eventSendRoundResult = "send_round_result"
)

// Outbound event names broadcast to a game's connections.
const (
	eventPlayerJoined     = "player_joined"
	eventPlayerLeft       = "player_left"
	eventGameStarted      = "game_started"
	eventRoundFinished    = "round_finished"
	eventNextRoundStarted = "next_round_started"
	eventGameFinished     = "game_finished"
	eventRoundResultSent  = "round_result_sent"
	eventError            = "error"
)

type wsRequest struct {
	Event string        `json:"event"`
	Data  wsRequestData `json:"data"`
}

type wsRequestData struct {
	RoundNumber int    `json:"round_number,omitempty"`
	FirstTopic  string `json:"first_topic,omitempty"`
	SecondTopic string `json:"second_topic,omitempty"`
	ThirdTopic  string `json:"third_topic,omitempty"`
}

type wsResponse struct {
	Event     string `json:"event"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

func errorResponse(message string, code int) wsResponse {
	return wsResponse{
		Event:     eventError,
		Error:     message,
		ErrorCode: code,
	}
}

func (s *Server) dispatchWS(gameID uint, playerID string, conn *websocket.Conn, req wsRequest) {
	ctx := context.Background()
	switch req.Event {
	case eventJoinGame:
		if err := s.svc.JoinGame(ctx, gameID, playerID); err != nil {
			s.sendWSError(conn, err)
			return
		}
		s.ws.Broadcast(gameID, wsResponse{
			Event: eventPlayerJoined,
			Data:  map[string]any{"player_id": playerID},
		})
	case eventLeaveGame:
		if err := s.svc.LeaveGame(ctx, gameID, playerID); err != nil {
			s.sendWSError(conn, err)
			return
		}
		s.ws.Broadcast(gameID, wsResponse{
			Event: eventPlayerLeft,
			Data:  map[string]any{"player_id": playerID},
		})
	case eventStartGame:
		if err := s.svc.StartGame(ctx, gameID, playerID); err != nil {
			s.sendWSError(conn, err)
			return
		}
		log.Printf("game started game_id=%d host=%s", gameID, playerID)
		frame := wsResponse{Event: eventGameStarted}
		s.ws.Broadcast(gameID, frame)
		s.publishEvent(ctx, gameID, events.TypeGameStarted, playerID, frame)
	case eventStartNextRound:
		round, err := s.svc.StartNextRound(ctx, gameID, playerID)
		if err != nil {
			s.sendWSError(conn, err)
			return
		}
		log.Printf("round started game_id=%d round=%d", gameID, round.Number)
		frame := wsResponse{
			Event: eventNextRoundStarted,
			Data:  map[string]any{"round_number": round.Number},
		}
		s.ws.Broadcast(gameID, frame)
		s.publishEvent(ctx, gameID, events.TypeRoundStarted, playerID, frame)
	case eventFinishRound:
		round, err := s.svc.FinishRound(ctx, gameID, playerID, req.Data.FirstTopic, req.Data.SecondTopic, req.Data.ThirdTopic)
		if err != nil {
			s.sendWSError(conn, err)
			return
		}
		log.Printf("round finished game_id=%d round=%d stopper=%s", gameID, round.Number, playerID)
		frame := wsResponse{
			Event: eventRoundFinished,
			Data: map[string]any{
				"round_number": round.Number,
				"stopped_by":   playerID,
			},
		}
		s.ws.Broadcast(gameID, frame)
		s.publishEvent(ctx, gameID, events.TypeRoundEnded, playerID, frame)
	case eventSendRoundResult:
		entry, err := s.svc.SubmitResult(ctx, gameID, playerID, req.Data.FirstTopic, req.Data.SecondTopic, req.Data.ThirdTopic, time.Now().UTC())
		if err != nil {
			s.sendWSError(conn, err)
			return
		}
		s.ws.Broadcast(gameID, wsResponse{
			Event: eventRoundResultSent,
			Data: map[string]any{
				"player_id": playerID,
				"score":     entry.Score,
			},
		})
	case eventFinishGame:
		if err := s.svc.FinishGame(ctx, gameID, playerID); err != nil {
			s.sendWSError(conn, err)
			return
		}
		log.Printf("game finished game_id=%d host=%s", gameID, playerID)
		frame := wsResponse{Event: eventGameFinished}
		s.ws.Broadcast(gameID, frame)
		s.publishEvent(ctx, gameID, events.TypeGameEnded, playerID, frame)
	default:
		s.ws.Send(conn, errorResponse("unknown event", http.StatusBadRequest))
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, err error) {
	gameErr := game.AsError(err)
	s.ws.Send(conn, errorResponse(gameErr.Message, gameErr.Code))
}

func (s *Server) publishEvent(ctx context.Context, gameID uint, eventType events.Type, actorID string, frame wsResponse) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, gameID, eventType, actorID, frame); err != nil {
		log.Printf("event publish failed game_id=%d type=%s error=%v", gameID, eventType, err)
	}
}

// ensureSubscribed attaches this instance to the game's bus channel once,
// so lifecycle frames published by other instances reach local connections.
func (s *Server) ensureSubscribed(gameID uint) {
	if s.bus == nil {
		return
	}
	s.subsMu.Lock()
	if s.subs[gameID] {
		s.subsMu.Unlock()
		return
	}
	s.subs[gameID] = true
	s.subsMu.Unlock()

	err := s.bus.Subscribe(context.Background(), gameID, func(message events.Message) {
		s.handleBusMessage(gameID, message)
	})
	if err != nil {
		log.Printf("event subscribe failed game_id=%d error=%v", gameID, err)
		s.subsMu.Lock()
		delete(s.subs, gameID)
		s.subsMu.Unlock()
	}
}

// handleBusMessage rebroadcasts a remote instance's frame to local
// connections. Own echoes are dropped; local clients already got the frame.
func (s *Server) handleBusMessage(gameID uint, message events.Message) {
	if message.PublisherID == s.bus.InstanceID() {
		return
	}
	if len(message.Payload) == 0 {
		return
	}
	s.ws.Broadcast(gameID, message.Payload)
}
