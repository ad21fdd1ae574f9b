package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MaxStatusChecks caps the status list query.
const MaxStatusChecks = 1000

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS status_checks (
        id TEXT PRIMARY KEY, -- UUID
        client_name TEXT NOT NULL,
        timestamp DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS chat_messages (
        id TEXT PRIMARY KEY, -- UUID
        user_name TEXT NOT NULL,
        user_email TEXT NOT NULL,
        user_phone TEXT NOT NULL,
        message TEXT NOT NULL,
        timestamp DATETIME NOT NULL
    );

    -- user_id points at chat_messages.id but is deliberately not a foreign key
    CREATE TABLE IF NOT EXISTS ai_responses (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        response TEXT NOT NULL,
        recommendations_json TEXT NOT NULL,
        timestamp DATETIME NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Status check methods
func (s *SQLiteStore) CreateStatusCheck(ctx context.Context, clientName string) (*StatusCheck, error) {
	check := &StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO status_checks (id, client_name, timestamp) VALUES (?, ?, ?)",
		check.ID, check.ClientName, check.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert status check: %w", err)
	}
	return check, nil
}

func (s *SQLiteStore) ListStatusChecks(ctx context.Context) ([]StatusCheck, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_name, timestamp FROM status_checks ORDER BY rowid ASC LIMIT ?", MaxStatusChecks)
	if err != nil {
		return nil, fmt.Errorf("failed to query status checks: %w", err)
	}
	defer rows.Close()

	checks := make([]StatusCheck, 0)
	for rows.Next() {
		var check StatusCheck
		if err := rows.Scan(&check.ID, &check.ClientName, &check.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan status check row: %w", err)
		}
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status checks: %w", err)
	}
	return checks, nil
}

// Chat transcript methods
func (s *SQLiteStore) CreateChatTurn(ctx context.Context, turn *ChatTurn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (id, user_name, user_email, user_phone, message, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		turn.ID, turn.UserInfo.Name, turn.UserInfo.Email, turn.UserInfo.Phone, turn.Message, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListChatTurns(ctx context.Context) ([]ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_name, user_email, user_phone, message, timestamp FROM chat_messages ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	turns := make([]ChatTurn, 0)
	for rows.Next() {
		var turn ChatTurn
		if err := rows.Scan(&turn.ID, &turn.UserInfo.Name, &turn.UserInfo.Email, &turn.UserInfo.Phone, &turn.Message, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}
	return turns, nil
}

func (s *SQLiteStore) CreateAiReply(ctx context.Context, reply *AiReply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.Timestamp.IsZero() {
		reply.Timestamp = time.Now().UTC()
	}
	if reply.Recommendations == nil {
		reply.Recommendations = []string{}
	}

	recommendationsJSON, err := json.Marshal(reply.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO ai_responses (id, user_id, response, recommendations_json, timestamp) VALUES (?, ?, ?, ?, ?)",
		reply.ID, reply.UserID, reply.Response, string(recommendationsJSON), reply.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert ai response: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAiReplies(ctx context.Context) ([]AiReply, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, response, recommendations_json, timestamp FROM ai_responses ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query ai responses: %w", err)
	}
	defer rows.Close()

	replies := make([]AiReply, 0)
	for rows.Next() {
		var reply AiReply
		var recommendationsJSON string
		if err := rows.Scan(&reply.ID, &reply.UserID, &reply.Response, &recommendationsJSON, &reply.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan ai response row: %w", err)
		}
		if err := json.Unmarshal([]byte(recommendationsJSON), &reply.Recommendations); err != nil {
			slog.Warn("failed to decode recommendations, using empty list", "reply_id", reply.ID, "err", err)
		}
		if reply.Recommendations == nil {
			reply.Recommendations = []string{}
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ai responses: %w", err)
	}
	return replies, nil
}
