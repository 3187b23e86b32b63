package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}
	logger.Info("Database schema initialized",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStorage) AppendUtterance(ctx context.Context, u models.Utterance) error {
	query := `
		INSERT INTO utterances (id, thread_id, speaker, text)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.ThreadID, u.Speaker, u.Text); err != nil {
		return fmt.Errorf("error saving utterance: %v", err)
	}
	return nil
}

func (s *PostgresStorage) RecentUtterances(ctx context.Context, threadID int64, limit int) ([]models.Utterance, error) {
	query := `
		SELECT id, thread_id, speaker, text, created_at
		FROM utterances
		WHERE thread_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying utterances: %v", err)
	}
	defer rows.Close()

	var recent []models.Utterance
	for rows.Next() {
		var u models.Utterance
		if err := rows.Scan(&u.ID, &u.ThreadID, &u.Speaker, &u.Text, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning utterance: %v", err)
		}
		recent = append(recent, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading utterances: %v", err)
	}

	// Newest-first from the query, chronological for callers.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *PostgresStorage) GetThreadState(ctx context.Context, threadID int64) (*models.ThreadState, error) {
	query := `
		SELECT thread_id, intent, slots, missing, updated_at
		FROM thread_state
		WHERE thread_id = $1`

	var state models.ThreadState
	var slotsJSON []byte
	err := s.db.QueryRowContext(ctx, query, threadID).Scan(
		&state.ThreadID,
		&state.Intent,
		&slotsJSON,
		pq.Array(&state.Missing),
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying thread state: %v", err)
	}

	if err := json.Unmarshal(slotsJSON, &state.Slots); err != nil {
		return nil, fmt.Errorf("error decoding thread slots: %v", err)
	}
	return &state, nil
}

func (s *PostgresStorage) SaveThreadState(ctx context.Context, state *models.ThreadState) error {
	slotsJSON, err := json.Marshal(state.Slots)
	if err != nil {
		return fmt.Errorf("error encoding thread slots: %v", err)
	}

	query := `
		INSERT INTO thread_state (thread_id, intent, slots, missing, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (thread_id) DO UPDATE
		SET intent = EXCLUDED.intent,
		    slots = EXCLUDED.slots,
		    missing = EXCLUDED.missing,
		    updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, state.ThreadID, state.Intent, slotsJSON, pq.Array(state.Missing)); err != nil {
		return fmt.Errorf("error saving thread state: %v", err)
	}
	return nil
}

func (s *PostgresStorage) ClearThreadState(ctx context.Context, threadID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM thread_state WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("error clearing thread state: %v", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
