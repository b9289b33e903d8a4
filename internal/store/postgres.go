package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/renato-saldanha/talk-to-api/internal/model"
)

// PostgresStore implements ConversationStore over PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL, verifies the connection and applies the
// schema.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing database handle. The caller manages the
// connection lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity. Used by the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const conversationColumns = `id, phone_number, status, funnel_step, name, birth_date,
       weight_loss_reason, qualified, last_activity, created_at, finished_at`

// FindOrCreate loads the conversation for a phone number, creating a fresh
// active one at collect_name when none exists.
func (s *PostgresStore) FindOrCreate(ctx context.Context, phoneNumber string) (*model.Conversation, bool, error) {
	conv, err := s.Find(ctx, phoneNumber)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// ON CONFLICT DO NOTHING keeps concurrent first messages for the same
	// phone number from failing; the loser of the race re-reads.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, phone_number, status, funnel_step)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (phone_number) DO NOTHING`,
		uuid.New(), phoneNumber, model.StatusActive, model.StepCollectName,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	conv, err = s.Find(ctx, phoneNumber)
	if err != nil {
		return nil, false, err
	}
	return conv, rows > 0, nil
}

// Find loads the conversation for a phone number.
func (s *PostgresStore) Find(ctx context.Context, phoneNumber string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+`
         FROM conversations
         WHERE phone_number = $1`,
		phoneNumber,
	)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

// Update applies a partial update and refreshes last_activity. COALESCE keeps
// existing values for members the update leaves nil, so a persisted field can
// never be reset to NULL by a turn.
func (s *PostgresStore) Update(ctx context.Context, phoneNumber string, update model.ConversationUpdate) (*model.Conversation, error) {
	fields := update.Fields
	if fields == nil {
		fields = &model.Fields{}
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE conversations SET
            status = COALESCE($2, status),
            funnel_step = COALESCE($3, funnel_step),
            name = COALESCE($4, name),
            birth_date = COALESCE($5::date, birth_date),
            weight_loss_reason = COALESCE($6, weight_loss_reason),
            qualified = COALESCE($7, qualified),
            finished_at = COALESCE($8, finished_at),
            last_activity = NOW()
         WHERE phone_number = $1
         RETURNING `+conversationColumns,
		phoneNumber,
		statusValue(update.Status),
		stepValue(update.FunnelStep),
		fields.Name,
		fields.BirthDate,
		fields.WeightLossReason,
		fields.Qualified,
		update.FinishedAt,
	)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return conv, nil
}

// SetStatus changes only the status, leaving last_activity untouched so the
// expiry transition does not revive the session clock.
func (s *PostgresStore) SetStatus(ctx context.Context, phoneNumber string, status model.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = $2 WHERE phone_number = $1`,
		phoneNumber, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage appends a transcript entry.
func (s *PostgresStore) AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	var m model.Message
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content)
         VALUES ($1, $2, $3, $4)
         RETURNING id, conversation_id, role, content, created_at`,
		uuid.New(), conversationID, role, content,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &m, nil
}

// ListMessages returns the transcript ordered by creation time.
func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at
         FROM messages
         WHERE conversation_id = $1
         ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// List returns conversations ordered by recency.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]model.Conversation, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+`
         FROM conversations
         ORDER BY last_activity DESC
         LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, 0, err
		}
		conversations = append(conversations, *conv)
	}
	return conversations, total, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var (
		conv      model.Conversation
		name      sql.NullString
		birthDate sql.NullTime
		reason    sql.NullString
		qualified sql.NullBool
		finished  sql.NullTime
	)

	err := row.Scan(
		&conv.ID, &conv.PhoneNumber, &conv.Status, &conv.FunnelStep,
		&name, &birthDate, &reason, &qualified,
		&conv.LastActivity, &conv.CreatedAt, &finished,
	)
	if err != nil {
		return nil, err
	}

	if name.Valid {
		conv.Fields.Name = &name.String
	}
	if birthDate.Valid {
		formatted := birthDate.Time.Format("2006-01-02")
		conv.Fields.BirthDate = &formatted
	}
	if reason.Valid {
		conv.Fields.WeightLossReason = &reason.String
	}
	if qualified.Valid {
		conv.Fields.Qualified = &qualified.Bool
	}
	if finished.Valid {
		conv.FinishedAt = &finished.Time
	}

	return &conv, nil
}

func statusValue(s *model.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func stepValue(s *model.FunnelStep) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
