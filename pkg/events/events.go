package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

// Subjects published by the breakfast service. Consumers (dashboards,
// occupancy reports) subscribe to these; nothing in this process does.
const (
	SubjectBreakfastRedeemed = "breakfast.redeemed"
	SubjectQrIssued          = "breakfast.qr_issued"
	SubjectRosterImported    = "roster.imported"
	SubjectStaffLogin        = "auth.login"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// RedeemedEvent is the payload for SubjectBreakfastRedeemed.
type RedeemedEvent struct {
	GuestID    string    `json:"guest_id"`
	Room       string    `json:"room"`
	Date       string    `json:"date"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// RosterImportedEvent is the payload for SubjectRosterImported.
type RosterImportedEvent struct {
	Mode       string `json:"mode"`
	GuestCount int    `json:"guest_count"`
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher is used when no event bus is configured. Events are
// best-effort telemetry; the redemption path never depends on them.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
