package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
)

// SQLRepository implements Repository on Postgres or SQLite.
type SQLRepository struct {
	conn   database.Connection
	driver database.Driver
}

// NewSQLRepository creates an outbox repository on conn.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, driver: conn.Driver()}
}

const outboxColumns = `id, event_id, aggregate_type, aggregate_id, routing_key, payload,
	created_at, published_at, next_retry_at, retry_count, last_error, dead_lettered_at, dead_letter_reason`

func (r *SQLRepository) q(query string) string {
	return database.Rebind(r.driver, query)
}

// SaveBatch inserts msgs and assigns their IDs.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := r.q(`
		INSERT INTO outbox_messages (event_id, aggregate_type, aggregate_id, routing_key, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	for _, msg := range msgs {
		err := exec.QueryRow(ctx, query,
			msg.EventID,
			msg.AggregateType,
			msg.AggregateID,
			msg.RoutingKey,
			string(msg.Payload),
			database.TimeArg(r.driver, msg.CreatedAt),
		).Scan(&msg.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetUnpublished returns pending messages due at now.
func (r *SQLRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := r.conn.Query(ctx, r.q(`
		SELECT `+outboxColumns+`
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`), database.TimeArg(r.driver, now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// MarkPublished records a successful publish.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := r.conn.Exec(ctx, r.q(`UPDATE outbox_messages SET published_at = ? WHERE id = ?`),
		database.TimeArg(r.driver, at), id)
	return err
}

// MarkFailed counts a failed attempt and schedules the next one.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.conn.Exec(ctx, r.q(`
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`), errMsg, database.TimeArg(r.driver, nextRetryAt), id)
	return err
}

// MarkDead parks a message that exhausted its retries.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := r.conn.Exec(ctx, r.q(`
		UPDATE outbox_messages
		SET dead_lettered_at = ?, dead_letter_reason = ?, retry_count = retry_count + 1
		WHERE id = ?`), database.TimeArg(r.driver, at), reason, id)
	return err
}

// DeleteOld removes messages published before cutoff.
func (r *SQLRepository) DeleteOld(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.conn.Exec(ctx, r.q(`
		DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < ?`),
		database.TimeArg(r.driver, cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg                               Message
		payload                           string
		createdAt, publishedAt, nextRetry database.Time
		deadAt                            database.Time
	)
	err := row.Scan(
		&msg.ID,
		&msg.EventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.RoutingKey,
		&payload,
		&createdAt,
		&publishedAt,
		&nextRetry,
		&msg.RetryCount,
		&msg.LastError,
		&deadAt,
		&msg.DeadLetterReason,
	)
	if err != nil {
		return nil, err
	}
	msg.Payload = []byte(payload)
	msg.CreatedAt = createdAt.Time
	msg.PublishedAt = publishedAt.Ptr()
	msg.NextRetryAt = nextRetry.Ptr()
	msg.DeadLetteredAt = deadAt.Ptr()
	return &msg, nil
}
