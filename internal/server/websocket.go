package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type wsHub struct {
	mu     sync.Mutex
	groups map[uint]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[uint]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(gameID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[gameID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(gameID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, gameID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(gameID uint, payload any) {
	h.mu.Lock()
	group := h.groups[gameID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(gameID, conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if _, err := s.svc.GetGame(r.Context(), gameID); err != nil {
		writeGameError(w, err)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected game_id=%d player_id=%s remote=%s", gameID, playerID, r.RemoteAddr)
	s.ws.Add(gameID, conn)
	s.ensureSubscribed(gameID)
	go s.readWS(gameID, playerID, conn)
}

func (s *Server) readWS(gameID uint, playerID string, conn *websocket.Conn) {
	defer s.ws.Remove(gameID, conn)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected game_id=%d player_id=%s error=%v", gameID, playerID, err)
			return
		}
		var req wsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.ws.Send(conn, errorResponse("invalid message", http.StatusBadRequest))
			continue
		}
		s.dispatchWS(gameID, playerID, conn, req)
	}
}
