package domain

import "time"

type OutcomeStatus string

const (
	OutcomeSuccess          OutcomeStatus = "success"
	OutcomeClientNotFound   OutcomeStatus = "client_not_found"
	OutcomeNoValidArticles  OutcomeStatus = "no_valid_articles"
	OutcomeMalformedMessage OutcomeStatus = "malformed_message"
	OutcomePersistenceError OutcomeStatus = "persistence_error"
)

// OutcomeReport is the single terminal result of processing one chat message.
type OutcomeReport struct {
	Status       OutcomeStatus `json:"status"`
	HeaderID     int64         `json:"header_id,omitempty"`
	ClientName   string        `json:"client_name,omitempty"`
	ClientCode   string        `json:"client_code,omitempty"`
	DeliveryDate string        `json:"delivery_date,omitempty"`
	Lines        int           `json:"lines,omitempty"`
	Unmatched    []string      `json:"unmatched,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	Retryable    bool          `json:"retryable,omitempty"`
}

func (r OutcomeReport) Succeeded() bool {
	return r.Status == OutcomeSuccess
}

// ChatMessage is what the transport hands over: raw text plus routing data.
type ChatMessage struct {
	ID         string    `json:"message_id"`
	ChatID     string    `json:"chat_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"sent_at"`
}
