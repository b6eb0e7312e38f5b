package nats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

// Reply is published for every consumed chat message.
type Reply struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id,omitempty"`
	Text      string `json:"text"`
}

// decodeChatMessage accepts the JSON envelope produced by the chat gateway
// and, for ad-hoc publishers, a bare text payload. Messages without an id
// get the Nats-Msg-Id header or a fresh UUID.
func decodeChatMessage(msg *nats.Msg, now time.Time) domain.ChatMessage {
	var out domain.ChatMessage
	data := strings.TrimSpace(string(msg.Data))
	if strings.HasPrefix(data, "{") {
		if err := json.Unmarshal(msg.Data, &out); err != nil {
			out = domain.ChatMessage{Text: string(msg.Data)}
		}
	} else {
		out.Text = string(msg.Data)
	}

	if strings.TrimSpace(out.ID) == "" && msg.Header != nil {
		out.ID = msg.Header.Get(nats.MsgIdHdr)
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = uuid.NewString()
	}
	if out.ReceivedAt.IsZero() {
		out.ReceivedAt = now.UTC()
	}
	return out
}

func encodeReply(message domain.ChatMessage, text string) ([]byte, error) {
	return json.Marshal(Reply{
		MessageID: message.ID,
		ChatID:    message.ChatID,
		Text:      text,
	})
}
