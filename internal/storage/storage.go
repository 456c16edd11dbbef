// Package storage defines the persistence interfaces and their SQLite implementation.
package storage

import (
	"context"
	"errors"

	"estate_bot/internal/filter"
	"estate_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Listings is the persistence interface of the listing service.
type Listings interface {
	CreateListing(ctx context.Context, l *model.Listing) error
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	SearchListings(ctx context.Context, q filter.Query, limit, offset int) ([]model.Listing, int, error)
}

// Subscriptions is the persistence interface of the bot: saved filter sets and
// the notification cursor.
type Subscriptions interface {
	SaveSubscription(ctx context.Context, userID int64, fs model.FilterSet) error
	GetSubscription(ctx context.Context, userID int64) (*model.Subscription, error)
	DeleteSubscription(ctx context.Context, userID int64) (bool, error)
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)

	Cursor(ctx context.Context) (id int64, ok bool, err error)
	AdvanceCursor(ctx context.Context, id int64) error
}
