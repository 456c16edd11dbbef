package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"estate_bot/internal/model"
)

// SaveSubscription stores the filter set for a user, replacing any previous one.
func (s *SQLite) SaveSubscription(ctx context.Context, userID int64, fs model.FilterSet) error {
	if err := validate.Struct(fs); err != nil {
		return fmt.Errorf("validate filters: %w", err)
	}
	raw, err := json.Marshal(fs)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}

	ts := now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, filters, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET filters = excluded.filters, updated_at = excluded.updated_at`,
		userID, string(raw), ts, ts,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// GetSubscription returns the subscription of a user or ErrNotFound.
func (s *SQLite) GetSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, filters, created_at, updated_at FROM subscriptions WHERE user_id = ?`, userID,
	)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// DeleteSubscription removes the subscription of a user and reports whether
// one existed.
func (s *SQLite) DeleteSubscription(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// FiltersError reports a stored filter set that no longer decodes or
// validates.
type FiltersError struct {
	UserID int64
	Err    error
}

func (e *FiltersError) Error() string {
	return fmt.Sprintf("filters of user %d: %v", e.UserID, e.Err)
}

func (e *FiltersError) Unwrap() error {
	return e.Err
}

// ListSubscriptions returns every readable subscription ordered by user. Rows
// with unreadable filters are logged and skipped.
func (s *SQLite) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, filters, created_at, updated_at FROM subscriptions ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		var ferr *FiltersError
		if errors.As(err, &ferr) {
			s.log.Warn("skipping unreadable subscription", "user_id", ferr.UserID, "error", ferr.Err)
			continue
		}
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// Cursor returns the highest listing id already swept. ok is false before the
// first sweep.
func (s *SQLite) Cursor(ctx context.Context) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT last_listing_id FROM notify_cursor WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read cursor: %w", err)
	}
	return id, true, nil
}

// AdvanceCursor moves the cursor to id. The stored value never decreases.
func (s *SQLite) AdvanceCursor(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notify_cursor (id, last_listing_id, checked_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     last_listing_id = MAX(last_listing_id, excluded.last_listing_id),
		     checked_at = excluded.checked_at`,
		id, now(),
	)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}

func scanSubscription(row scannable) (*model.Subscription, error) {
	var sub model.Subscription
	var raw, created, updated string
	if err := row.Scan(&sub.UserID, &raw, &created, &updated); err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &sub.Filters); err != nil {
		return nil, &FiltersError{UserID: sub.UserID, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := validate.Struct(sub.Filters); err != nil {
		return nil, &FiltersError{UserID: sub.UserID, Err: fmt.Errorf("validate: %w", err)}
	}
	sub.CreatedAt = parseTime(created)
	sub.UpdatedAt = parseTime(updated)
	return &sub, nil
}
