package model

import "time"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Post struct {
	Topic            string    `json:"topic"`
	Title            string    `json:"title"`
	MetaDescription  string    `json:"meta_description"`
	Body             string    `json:"body"`
	Model            string    `json:"model"`
	Calls            int       `json:"calls"`
	CompletionTokens int64     `json:"completion_tokens"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Job tracks one deferred generation. Post is set only once Status is completed.
type Job struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	Post      *Post     `json:"post,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
