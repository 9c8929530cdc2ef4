package handler

import "time"

type openThreadRequest struct {
	OtherPartyID string `json:"other_party_id" validate:"required"`
}

type threadResponse struct {
	ThreadID     string    `json:"thread_id"`
	ClientID     string    `json:"client_id"`
	ConsultantID string    `json:"consultant_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

type threadSummaryResponse struct {
	ThreadID     string    `json:"thread_id"`
	OtherParty   string    `json:"other_party"`
	LastActivity time.Time `json:"last_activity"`
}

type appendMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type messageResponse struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	SenderID string    `json:"sender_id"`
	Seq      int64     `json:"seq"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

type listMessagesResponse struct {
	Messages   []messageResponse `json:"messages"`
	NextCursor int64             `json:"next_cursor"`
}
