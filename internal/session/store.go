package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned for lookups of unknown sessions.
var ErrNotFound = errors.New("session not found")

// Store persists sessions, messages and analytics events in SQLite.
type Store struct {
	db *gorm.DB
}

// Open initializes the database at path and runs migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session store: empty db path")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.AutoMigrate(&Session{}, &Message{}, &Event{}); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for concurrent HTTP reads while
	// keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureSession returns the session with the given ID, creating it with
// the given title when missing. An empty ID gets a fresh one.
func (s *Store) EnsureSession(id, title string) (*Session, error) {
	if id == "" {
		id = NewID()
	}
	var sess Session
	err := s.db.First(&sess, "id = ?", id).Error
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	sess = Session{ID: id, Title: title}
	if err := s.db.Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &sess, nil
}

// GetSession fetches one session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	var sess Session
	if err := s.db.First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// ListSessions returns sessions ordered by last activity, newest first,
// with their message counts.
func (s *Store) ListSessions(limit, offset int) ([]SessionSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []SessionSummary
	err := s.db.Model(&Session{}).
		Select("sessions.*, (SELECT COUNT(*) FROM messages WHERE messages.session_id = sessions.id) AS message_count").
		Order("sessions.updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// AddMessage appends a message to a session and bumps the session's
// UpdatedAt so listings sort by recency.
func (s *Store) AddMessage(sessionID, role, content, metadata string) (*Message, error) {
	msg := &Message{
		ID:        NewID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&Session{}).Where("id = ?", sessionID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a session's messages in chronological order.
func (s *Store) ListMessages(sessionID string, limit, offset int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var msgs []Message
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// DeleteSession removes a session and everything hanging off it.
func (s *Store) DeleteSession(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Session{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("session_id = ?", id).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Where("session_id = ?", id).Delete(&Event{}).Error; err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		return nil
	})
}

// RecordEvent stores an analytics event.
func (s *Store) RecordEvent(ev *Event) error {
	if err := s.db.Create(ev).Error; err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListEvents returns a session's analytics events, newest first.
func (s *Store) ListEvents(sessionID string, limit, offset int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var evs []Event
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return evs, nil
}

// EventCounts aggregates event totals per kind.
func (s *Store) EventCounts() (map[string]int64, error) {
	type row struct {
		Kind  string
		Count int64
	}
	var rows []row
	err := s.db.Model(&Event{}).
		Select("kind, COUNT(*) AS count").
		Group("kind").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Kind] = r.Count
	}
	return out, nil
}
