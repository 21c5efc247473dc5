package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// DeadLetterRepository persists order events the outbox processor gave up on.
type DeadLetterRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewDeadLetterRepository creates a new DeadLetterRepository
func NewDeadLetterRepository(db *database.Database, logger logger.Logger) *DeadLetterRepository {
	return &DeadLetterRepository{
		db:     db,
		logger: logger,
	}
}

const deadLetterColumns = `
	id, original_message_id, aggregate_type, aggregate_id, event_type, payload,
	error_message, failure_reason, retry_count, last_retry_at, status, created_at, resolved_at
`

// Create parks an event in the dead letter queue.
func (r *DeadLetterRepository) Create(ctx context.Context, message *models.DeadLetterMessage) error {
	query := `
		INSERT INTO dead_letter_messages (
			original_message_id, aggregate_type, aggregate_id, event_type, payload,
			error_message, failure_reason, retry_count, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id
	`

	var id int64

	err := r.db.DB.QueryRowContext(
		ctx,
		query,
		message.OriginalMessageID,
		message.AggregateType,
		message.AggregateID,
		message.EventType,
		message.Payload,
		message.ErrorMessage,
		message.FailureReason,
		message.RetryCount,
		message.Status,
		message.CreatedAt,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create dead letter message", "error", err,
			"eventType", message.EventType, "aggregateID", message.AggregateID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	message.ID = id
	return nil
}

// GetPendingMessages retrieves parked events awaiting replay, oldest first.
func (r *DeadLetterRepository) GetPendingMessages(ctx context.Context, limit int) ([]*models.DeadLetterMessage, error) {
	query := `
		SELECT ` + deadLetterColumns + `
		FROM dead_letter_messages
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var messages []*models.DeadLetterMessage

	err := r.db.DB.SelectContext(
		ctx,
		&messages,
		query,
		models.DeadLetterStatusPending,
		limit,
	)

	if err != nil {
		r.logger.Error("Failed to get pending dead letter messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// ListByStatus pages through parked events in the given replay state.
func (r *DeadLetterRepository) ListByStatus(ctx context.Context, status models.DeadLetterStatus, limit, offset int) ([]*models.DeadLetterMessage, error) {
	query := `
		SELECT ` + deadLetterColumns + `
		FROM dead_letter_messages
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	var messages []*models.DeadLetterMessage

	err := r.db.DB.SelectContext(
		ctx,
		&messages,
		query,
		status,
		limit,
		offset,
	)

	if err != nil {
		r.logger.Error("Failed to list dead letter messages", "error", err, "status", status)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// CountByStatus counts parked events in the given replay state.
func (r *DeadLetterRepository) CountByStatus(ctx context.Context, status models.DeadLetterStatus) (int, error) {
	query := `SELECT COUNT(*) FROM dead_letter_messages WHERE status = $1`

	var count int

	err := r.db.DB.GetContext(ctx, &count, query, status)

	if err != nil {
		r.logger.Error("Failed to count dead letter messages", "error", err, "status", status)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}

// MarkAsRetrying records the start of one replay attempt.
func (r *DeadLetterRepository) MarkAsRetrying(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1, retry_count = retry_count + 1, last_retry_at = $2
		WHERE id = $3
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		models.DeadLetterStatusRetrying,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		r.logger.Error("Failed to mark dead letter message as retrying", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsResolved records a successful replay.
func (r *DeadLetterRepository) MarkAsResolved(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1, resolved_at = $2
		WHERE id = $3
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		models.DeadLetterStatusResolved,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		r.logger.Error("Failed to mark dead letter message as resolved", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsDiscarded gives up on an event permanently, appending the reason to
// its failure trail.
func (r *DeadLetterRepository) MarkAsDiscarded(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1,
		    failure_reason = CONCAT(failure_reason, ' | Discarded: ', $2),
		    resolved_at = $3
		WHERE id = $4
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		models.DeadLetterStatusDiscarded,
		reason,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		r.logger.Error("Failed to mark dead letter message as discarded", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves one parked event.
func (r *DeadLetterRepository) GetByID(ctx context.Context, id int64) (*models.DeadLetterMessage, error) {
	query := `
		SELECT ` + deadLetterColumns + `
		FROM dead_letter_messages
		WHERE id = $1
	`

	var message models.DeadLetterMessage

	err := r.db.DB.GetContext(ctx, &message, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get dead letter message", "error", err, "messageID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &message, nil
}
