package session

import "time"

// Session is one chat conversation.
type Session struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	Title     string    `gorm:"size:200" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn inside a session. Metadata carries a JSON blob with
// per-answer details (chart count, quality score, latency).
type Message struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	SessionID string    `gorm:"index;size:26" json:"session_id"`
	Role      string    `gorm:"size:16" json:"role"`
	Content   string    `json:"content"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is an analytics record for reporting on chat usage.
type Event struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"index;size:26" json:"session_id"`
	Kind      string    `gorm:"size:32" json:"kind"`
	Query     string    `json:"query,omitempty"`
	Charts    int       `json:"charts"`
	Quality   int       `json:"quality"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is a session plus its message count, for listings.
type SessionSummary struct {
	Session
	MessageCount int64 `json:"message_count"`
}
