package conversations

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-talk/core/backend"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type RecordState string

const (
	StatePending RecordState = "pending"
	StateFinal   RecordState = "final"
	StateError   RecordState = "error"
)

// Record is one chat bubble of the transcript.
type Record struct {
	ID     uuid.UUID   `json:"id"`
	Role   Role        `json:"role"`
	Text   string      `json:"text"`
	State  RecordState `json:"state"`
	TurnID uint64      `json:"turnId"`
}

// PlaceholderText is shown in the bot bubble while the backend is working.
const PlaceholderText = "…"

// ErrorText renders a backend failure as the text of the bot bubble.
func ErrorText(err error) string {
	if errors.Is(err, backend.ErrEmptyReply) {
		return "⚠️ Keine Antwort erhalten."
	}

	var networkErr *backend.NetworkError
	var protocolErr *backend.ProtocolError
	switch {
	case errors.As(err, &networkErr):
		return "❌ Fehler: Netzwerkfehler: " + networkErr.Err.Error()
	case errors.As(err, &protocolErr) && protocolErr.StatusCode != 0:
		return fmt.Sprintf("❌ Fehler: HTTP %d: %s", protocolErr.StatusCode, protocolErr.Body)
	case errors.As(err, &protocolErr):
		return "❌ Fehler: Ungültiges JSON: " + protocolErr.Body
	}
	return "❌ Fehler: " + err.Error()
}
