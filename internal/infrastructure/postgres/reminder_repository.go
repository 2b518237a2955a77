package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ontime/internal/domain/reminder"
)

const reminderColumns = "id, user_id, title, description, due_at, source, source_id, is_completed, created_at, updated_at"

// ReminderRepository implements the reminder.Repository interface for PostgreSQL
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new PostgreSQL reminder repository
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListByUserID retrieves all reminders for a user, soonest due first.
// Reminders without a due date sort last.
func (r *ReminderRepository) ListByUserID(ctx context.Context, userID int64) ([]*reminder.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1
		ORDER BY due_at ASC NULLS LAST, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*reminder.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// Create creates a new reminder
func (r *ReminderRepository) Create(ctx context.Context, params reminder.CreateParams) (*reminder.Reminder, error) {
	query := `
		INSERT INTO reminders (user_id, title, description, due_at, source, source_id, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + reminderColumns

	var rem reminder.Reminder
	var description, source, sourceID sql.NullString
	var dueAt sql.NullTime

	err := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.Title, nullString(params.Description), nullTime(params.DueAt),
		nullString(params.Source), nullString(params.SourceID), params.IsCompleted,
	).Scan(
		&rem.ID, &rem.UserID, &rem.Title, &description, &dueAt,
		&source, &sourceID, &rem.IsCompleted, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	rem.Description = stringPtr(description)
	rem.DueAt = timePtr(dueAt)
	rem.Source = stringPtr(source)
	rem.SourceID = stringPtr(sourceID)
	return &rem, nil
}

// Update applies a partial update to a reminder scoped to (user, id)
func (r *ReminderRepository) Update(ctx context.Context, userID, reminderID int64, params reminder.UpdateParams) (*reminder.Reminder, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{}
	idx := 1

	if params.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", idx))
		args = append(args, *params.Title)
		idx++
	}
	if params.ClearDescription {
		set = append(set, "description = NULL")
	} else if params.Description != nil {
		set = append(set, fmt.Sprintf("description = $%d", idx))
		args = append(args, *params.Description)
		idx++
	}
	if params.ClearDueAt {
		set = append(set, "due_at = NULL")
	} else if params.DueAt != nil {
		set = append(set, fmt.Sprintf("due_at = $%d", idx))
		args = append(args, *params.DueAt)
		idx++
	}
	if params.IsCompleted != nil {
		set = append(set, fmt.Sprintf("is_completed = $%d", idx))
		args = append(args, *params.IsCompleted)
		idx++
	}

	args = append(args, reminderID, userID)
	query := fmt.Sprintf(`
		UPDATE reminders
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`, strings.Join(set, ", "), idx, idx+1, reminderColumns)

	var rem reminder.Reminder
	var description, source, sourceID sql.NullString
	var dueAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rem.ID, &rem.UserID, &rem.Title, &description, &dueAt,
		&source, &sourceID, &rem.IsCompleted, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, reminder.ErrReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	rem.Description = stringPtr(description)
	rem.DueAt = timePtr(dueAt)
	rem.Source = stringPtr(source)
	rem.SourceID = stringPtr(sourceID)
	return &rem, nil
}

// Delete removes a reminder scoped to (user, id)
func (r *ReminderRepository) Delete(ctx context.Context, userID, reminderID int64) error {
	query := `DELETE FROM reminders WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, reminderID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return reminder.ErrReminderNotFound
	}

	return nil
}

// scanner abstracts *sql.Rows and *sql.Row for scanReminder
type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (*reminder.Reminder, error) {
	var rem reminder.Reminder
	var description, source, sourceID sql.NullString
	var dueAt sql.NullTime

	if err := s.Scan(
		&rem.ID, &rem.UserID, &rem.Title, &description, &dueAt,
		&source, &sourceID, &rem.IsCompleted, &rem.CreatedAt, &rem.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rem.Description = stringPtr(description)
	rem.DueAt = timePtr(dueAt)
	rem.Source = stringPtr(source)
	rem.SourceID = stringPtr(sourceID)
	return &rem, nil
}
