package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event payload types shared between the round engine and the gateway.
// Every time-sensitive payload carries a server timestamp so observers with
// clock skew compute absolute deadlines instead of drifting apart.

// Type identifies a round event on the wire.
type Type string

const (
	TypeRoundOpened     Type = "round-opened"
	TypeRoundStarted    Type = "round-started"
	TypeMultiplier      Type = "multiplier"
	TypeRoundCrashed    Type = "round-crashed"
	TypeBetPlaced       Type = "bet-placed"
	TypeWinningsClaimed Type = "winnings-claimed"
)

// Event is the envelope fanned out to observers. Delivery is at-least-once;
// consumers must treat duplicates and reordering as harmless.
type Event struct {
	ID        string          `json:"id"`
	RoundID   string          `json:"round_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps a payload into an Event envelope.
func New(eventType Type, roundID uuid.UUID, at time.Time, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		RoundID:   roundID.String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}, nil
}

// RoundOpenedPayload announces a new round and its betting countdown.
type RoundOpenedPayload struct {
	RoundID          string    `json:"round_id"`
	CountdownSeconds int       `json:"countdown_seconds"`
	CountdownEndsAt  time.Time `json:"countdown_ends_at"`
	ServerTimestamp  time.Time `json:"server_timestamp"`
}

// RoundStartedPayload announces that the multiplier has started climbing.
type RoundStartedPayload struct {
	RoundID         string    `json:"round_id"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

// MultiplierPayload carries one point of the multiplier timeline.
type MultiplierPayload struct {
	RoundID         string    `json:"round_id"`
	Multiplier      string    `json:"multiplier"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

// RoundCrashedPayload reveals the crash point once the round is over.
type RoundCrashedPayload struct {
	RoundID         string    `json:"round_id"`
	CrashPoint      string    `json:"crash_point"`
	Abandoned       bool      `json:"abandoned,omitempty"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

// BetPlacedPayload announces a new participant in the current round.
type BetPlacedPayload struct {
	RoundID         string    `json:"round_id"`
	UserID          string    `json:"user_id"`
	Stake           string    `json:"stake"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

// WinningsClaimedPayload announces a successful cash-out.
type WinningsClaimedPayload struct {
	RoundID         string    `json:"round_id"`
	UserID          string    `json:"user_id"`
	Stake           string    `json:"stake"`
	Multiplier      string    `json:"multiplier"`
	Winnings        string    `json:"winnings"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}
