// Package notifier finds newly added listings and notifies the subscribers
// whose filters they match.
package notifier

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"estate_bot/internal/filter"
	"estate_bot/internal/model"
)

// Store persists subscriptions and the notification cursor.
type Store interface {
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	Cursor(ctx context.Context) (int64, bool, error)
	AdvanceCursor(ctx context.Context, id int64) error
}

// Source returns the newest listings, newest first.
type Source interface {
	Newest(ctx context.Context) ([]model.Listing, error)
}

// Sender delivers a listing card to a chat.
type Sender interface {
	SendListing(ctx context.Context, chatID int64, l model.Listing) error
}

// Report summarises one sweep.
type Report struct {
	New           int
	Subscriptions int
	Sent          int
	Failed        int
	Cursor        int64
}

// Sweeper runs notification sweeps. Concurrent calls to Sweep are serialised.
type Sweeper struct {
	store   Store
	source  Source
	sender  Sender
	limiter *rate.Limiter
	log     *slog.Logger

	mu sync.Mutex
}

// NewSweeper creates a Sweeper that waits at least delay between two
// deliveries. A non-positive delay disables pacing.
func NewSweeper(store Store, source Source, sender Sender, delay time.Duration, log *slog.Logger) *Sweeper {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Sweeper{
		store:   store,
		source:  source,
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Sweep evaluates every listing newer than the cursor against every
// subscription and sends the matches. The cursor only moves after the whole
// pass, so an interrupted sweep is repeated in full next time.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rep Report
	s.log.Debug("sweep state", "state", "fetching")

	cursor, seen, err := s.store.Cursor(ctx)
	if err != nil {
		return rep, fmt.Errorf("read cursor: %w", err)
	}
	rep.Cursor = cursor

	listings, err := s.source.Newest(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch newest listings: %w", err)
	}
	if len(listings) == 0 {
		s.log.Info("no listings yet")
		return rep, nil
	}

	var fresh []model.Listing
	var maxID int64
	for _, l := range listings {
		maxID = max(maxID, l.ID)
		if !seen || l.ID > cursor {
			fresh = append(fresh, l)
		}
	}
	rep.New = len(fresh)

	if len(fresh) == 0 {
		if maxID > cursor {
			return rep, s.advance(ctx, &rep, maxID)
		}
		s.log.Debug("no new listings", "cursor", cursor)
		return rep, nil
	}

	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return rep, fmt.Errorf("list subscriptions: %w", err)
	}
	rep.Subscriptions = len(subs)
	if len(subs) == 0 {
		return rep, s.advance(ctx, &rep, maxID)
	}

	slices.SortFunc(fresh, func(a, b model.Listing) int { return cmp.Compare(a.ID, b.ID) })

	s.log.Debug("sweep state", "state", "evaluating", "new", len(fresh), "subscriptions", len(subs))
	type delivery struct {
		chatID  int64
		listing model.Listing
	}
	var pending []delivery
	for _, l := range fresh {
		for _, sub := range subs {
			if filter.Match(l, sub.Filters) {
				pending = append(pending, delivery{chatID: sub.UserID, listing: l})
			}
		}
	}

	s.log.Debug("sweep state", "state", "dispatching", "deliveries", len(pending))
	for _, d := range pending {
		if err := s.limiter.Wait(ctx); err != nil {
			return rep, fmt.Errorf("sweep interrupted: %w", context.Cause(ctx))
		}
		if err := s.sender.SendListing(ctx, d.chatID, d.listing); err != nil {
			rep.Failed++
			s.log.Error("send notification", "chat_id", d.chatID, "listing_id", d.listing.ID, "error", err)
		} else {
			rep.Sent++
		}
		if ctx.Err() != nil {
			return rep, fmt.Errorf("sweep interrupted: %w", context.Cause(ctx))
		}
	}

	if err := s.advance(ctx, &rep, maxID); err != nil {
		return rep, err
	}
	s.log.Info("sweep finished", "new", rep.New, "sent", rep.Sent, "failed", rep.Failed, "cursor", rep.Cursor)
	s.log.Debug("sweep state", "state", "idle")
	return rep, nil
}

func (s *Sweeper) advance(ctx context.Context, rep *Report, id int64) error {
	if err := s.store.AdvanceCursor(ctx, id); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	rep.Cursor = id
	return nil
}
