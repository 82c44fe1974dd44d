// Package events is a thin pub/sub layer over Redis used to fan out
// game lifecycle notifications across server instances.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Type identifies a lifecycle event on a game channel.
type Type string

const (
	TypeGameStarted  Type = "game_started"
	TypeRoundStarted Type = "round_started"
	TypeRoundEnded   Type = "round_ended"
	TypeGameEnded    Type = "game_ended"
)

// Message is the envelope published on a game channel. PublisherID names
// the instance that produced it, so subscribers can drop their own echoes.
// Payload carries the client-facing frame a remote instance rebroadcasts.
type Message struct {
	ID          string          `json:"id"`
	EventType   Type            `json:"event_type"`
	Channel     string          `json:"channel"`
	PublisherID string          `json:"publisher_id"`
	ActorID     string          `json:"actor_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// GameChannel names the pub/sub channel for one game.
func GameChannel(gameID uint) string {
	return fmt.Sprintf("game:%d:events", gameID)
}

// Bus publishes and consumes lifecycle messages.
type Bus struct {
	client     *redis.Client
	instanceID string
}

func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client, instanceID: uuid.NewString()}
}

// InstanceID identifies this publisher in outgoing messages.
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// Publish sends a lifecycle event on the game's channel. Failures are
// returned to the caller; the game state itself is already committed by
// the time a publish happens, so callers typically log and move on.
func (b *Bus) Publish(ctx context.Context, gameID uint, eventType Type, actorID string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		raw = encoded
	}
	message := Message{
		ID:          uuid.NewString(),
		EventType:   eventType,
		Channel:     GameChannel(gameID),
		PublisherID: b.instanceID,
		ActorID:     actorID,
		Payload:     raw,
	}
	encoded, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal event message: %w", err)
	}
	if err := b.client.Publish(ctx, message.Channel, encoded).Err(); err != nil {
		return fmt.Errorf("publish event message: %w", err)
	}
	return nil
}

// Subscribe consumes lifecycle events for one game until ctx is
// cancelled. All messages are delivered, own echoes included; filtering
// on PublisherID is the handler's call. Malformed payloads are logged
// and skipped.
func (b *Bus) Subscribe(ctx context.Context, gameID uint, handler func(Message)) error {
	sub := b.client.Subscribe(ctx, GameChannel(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe to game channel: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var message Message
				if err := json.Unmarshal([]byte(raw.Payload), &message); err != nil {
					log.Printf("events: discarding malformed message on %s: %v", raw.Channel, err)
					continue
				}
				handler(message)
			}
		}
	}()
	return nil
}
