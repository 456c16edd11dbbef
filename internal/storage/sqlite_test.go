package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"estate_bot/internal/filter"
	"estate_bot/internal/model"
)

var ignoreListingTS = cmpopts.IgnoreFields(model.Listing{}, "CreatedAt", "UpdatedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newListing(district string, rooms int, area float64, price int) model.Listing {
	return model.Listing{
		Type:         model.TypeSecondary,
		District:     district,
		Condition:    model.ConditionRenovated,
		Area:         area,
		Rooms:        rooms,
		Price:        price,
		Address:      "ул. Амира Темура, 1",
		Floor:        3,
		FloorsTotal:  9,
		ContactName:  "Влад",
		ContactPhone: "+998901234567",
	}
}

func seedListings(t *testing.T, s *SQLite, listings ...model.Listing) []model.Listing {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range listings {
		if listings[i].CreatedAt.IsZero() {
			listings[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		}
		if err := s.CreateListing(context.Background(), &listings[i]); err != nil {
			t.Fatalf("create listing %d: %v", i, err)
		}
	}
	return listings
}

func ids(listings []model.Listing) []int64 {
	out := make([]int64, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestListingCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	l := newListing("Мирабадский", 2, 55.5, 80000)
	l.Description = "Светлая квартира"
	l.Images = []model.Image{
		{Path: "apartments/b.jpg", Order: 2},
		{Path: "apartments/a.jpg", Order: 1},
	}
	if err := s.CreateListing(ctx, &l); err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := s.GetListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := l
	want.Images = []model.Image{
		{ID: l.Images[1].ID, Path: "apartments/a.jpg", Order: 1},
		{ID: l.Images[0].ID, Path: "apartments/b.jpg", Order: 2},
	}
	if diff := cmp.Diff(want, *got, ignoreListingTS); diff != "" {
		t.Errorf("GetListing mismatch (-want +got):\n%s", diff)
	}
}

func TestGetListingNotFound(t *testing.T) {
	s := newTestDB(t)
	_, err := s.GetListing(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateListingValidates(t *testing.T) {
	s := newTestDB(t)

	tests := []struct {
		name   string
		mutate func(l *model.Listing)
	}{
		{name: "unknown type", mutate: func(l *model.Listing) { l.Type = "Дом" }},
		{name: "unknown condition", mutate: func(l *model.Listing) { l.Condition = "Евроремонт" }},
		{name: "missing district", mutate: func(l *model.Listing) { l.District = "" }},
		{name: "zero area", mutate: func(l *model.Listing) { l.Area = 0 }},
		{name: "floor above total", mutate: func(l *model.Listing) { l.Floor = 12 }},
		{name: "image without path", mutate: func(l *model.Listing) { l.Images = []model.Image{{Order: 1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing("Мирабадский", 2, 50, 70000)
			tt.mutate(&l)
			if err := s.CreateListing(context.Background(), &l); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestSearchListingsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	newBuild := newListing("Юнусабадский", 1, 38, 65000)
	newBuild.Type = model.TypeNewBuild
	newBuild.Condition = model.ConditionBare

	seeded := seedListings(t, s,
		newListing("Мирабадский", 2, 55, 80000),    // 1
		newListing("Юнусабадский", 3, 72.5, 95000), // 2
		newBuild, // 3
		newListing("Мирабадский", 4, 120, 210000),  // 4
		newListing("Яшнабадский", 5, 210, 1000000), // 5
	)

	tests := []struct {
		name  string
		query filter.Query
		want  []int64
	}{
		{
			name:  "no filters newest first",
			query: filter.Query{},
			want:  []int64{seeded[4].ID, seeded[3].ID, seeded[2].ID, seeded[1].ID, seeded[0].ID},
		},
		{
			name:  "district set",
			query: filter.Query{Districts: []string{"Мирабадский", "Яшнабадский"}},
			want:  []int64{seeded[4].ID, seeded[3].ID, seeded[0].ID},
		},
		{
			name:  "type and condition",
			query: filter.Query{Types: []string{model.TypeNewBuild}, Conditions: []string{model.ConditionBare}},
			want:  []int64{seeded[2].ID},
		},
		{
			name:  "rooms",
			query: filter.Query{Rooms: []int{2, 3}},
			want:  []int64{seeded[1].ID, seeded[0].ID},
		},
		{
			name:  "area union",
			query: filter.Query{Area: filter.ParseRanges([]string{"0:40", "67:85"}, filter.ParseRange)},
			want:  []int64{seeded[2].ID, seeded[1].ID},
		},
		{
			name:  "area inclusive bounds",
			query: filter.Query{Area: filter.ParseRanges([]string{"55:55"}, filter.ParseRange)},
			want:  []int64{seeded[0].ID},
		},
		{
			name:  "price open upper bound",
			query: filter.Query{Price: filter.ParseRanges([]string{"200000:"}, filter.ParsePriceRange)},
			want:  []int64{seeded[4].ID, seeded[3].ID},
		},
		{
			name: "facets combine with and",
			query: filter.Query{
				Districts: []string{"Мирабадский"},
				Price:     filter.ParseRanges([]string{"0:100000"}, filter.ParsePriceRange),
			},
			want: []int64{seeded[0].ID},
		},
		{
			name:  "nothing matches",
			query: filter.Query{Districts: []string{"Сергелийский"}},
			want:  []int64{},
		},
		{
			name:  "ordering by price ascending",
			query: filter.Query{Ordering: filter.OrderPriceAsc},
			want:  []int64{seeded[2].ID, seeded[0].ID, seeded[1].ID, seeded[3].ID, seeded[4].ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.SearchListings(ctx, tt.query, 10, 0)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(len(tt.want), total); diff != "" {
				t.Errorf("total mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchListingsAgreesWithMatcher(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	var listings []model.Listing
	districts := []string{"Мирабадский", "Юнусабадский", "Яккасарайский"}
	for i := range 30 {
		listings = append(listings, newListing(districts[i%3], 1+i%5, float64(30+i*7), 50000+i*9000))
	}
	seedListings(t, s, listings...)

	fs := model.FilterSet{
		District: model.Choice[string]{Values: []string{"Мирабадский", "Яккасарайский"}},
		Rooms:    model.Choice[int]{Values: []int{1, 2, 3}},
		Area:     model.RangeFacet{Ranges: []string{"0:66", "105:160"}},
		Price:    model.RangeFacet{Ranges: []string{"0:150000", "200000:"}},
	}

	got, total, err := s.SearchListings(ctx, filter.ParseQuery(filter.Values(fs, 1)), 100, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var want []int64
	for i := len(listings) - 1; i >= 0; i-- {
		if filter.Match(listings[i], fs) {
			want = append(want, listings[i].ID)
		}
	}
	if len(want) == 0 {
		t.Fatal("fixture should produce matches")
	}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("SQL and matcher disagree (-want +got):\n%s", diff)
	}
	if total != len(want) {
		t.Errorf("total = %d, want %d", total, len(want))
	}
}

func TestSearchListingsPagination(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	var listings []model.Listing
	for i := range 25 {
		listings = append(listings, newListing("Мирабадский", 2, 50, 60000+i))
	}
	seeded := seedListings(t, s, listings...)

	all, _, err := s.SearchListings(ctx, filter.Query{}, 100, 0)
	if err != nil {
		t.Fatalf("search all: %v", err)
	}

	for page := 1; page <= 4; page++ {
		got, total, err := s.SearchListings(ctx, filter.Query{}, 10, (page-1)*10)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if total != len(seeded) {
			t.Errorf("page %d: total = %d, want %d", page, total, len(seeded))
		}
		lo, hi := min((page-1)*10, len(all)), min(page*10, len(all))
		if diff := cmp.Diff(ids(all[lo:hi]), ids(got), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("page %d mismatch (-want +got):\n%s", page, diff)
		}
	}
}

func TestSearchListingsTiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := newListing("Мирабадский", 2, 50, 60000)
	b := newListing("Мирабадский", 2, 50, 60000)
	a.CreatedAt, b.CreatedAt = at, at
	seeded := seedListings(t, s, a, b)

	got, _, err := s.SearchListings(ctx, filter.Query{}, 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]int64{seeded[1].ID, seeded[0].ID}, ids(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchListingsNewestByInsertion(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	var listings []model.Listing
	for i := range 10 {
		listings = append(listings, newListing("Мирабадский", 2, 50, 60000+i))
	}
	backdated := newListing("Юнусабадский", 3, 70, 90000)
	backdated.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	seeded := seedListings(t, s, append(listings, backdated)...)
	last := seeded[len(seeded)-1]

	got, _, err := s.SearchListings(ctx, filter.Query{Ordering: filter.OrderNewest}, 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) == 0 || got[0].ID != last.ID {
		t.Fatalf("first id = %v, want %d", ids(got), last.ID)
	}

	got, _, err = s.SearchListings(ctx, filter.Query{Ordering: filter.OrderCreatedDesc}, 20, 0)
	if err != nil {
		t.Fatalf("search by created_at: %v", err)
	}
	if got[len(got)-1].ID != last.ID {
		t.Errorf("ordering by created_at put %d last, want %d", got[len(got)-1].ID, last.ID)
	}
}

func TestSearchListingsText(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	a := newListing("Мирабадский", 2, 50, 60000)
	a.Description = "Рядом МЕТРО и парк"
	b := newListing("Юнусабадский", 2, 50, 60000)
	b.Address = "массив 100%_ые дома"
	seeded := seedListings(t, s, a, b)

	tests := []struct {
		search string
		want   []int64
	}{
		{search: "метро", want: []int64{seeded[0].ID}},
		{search: "юнусабад", want: []int64{seeded[1].ID}},
		{search: "100%_", want: []int64{seeded[1].ID}},
		{search: "%", want: []int64{seeded[1].ID}},
		{search: "океан", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got, _, err := s.SearchListings(ctx, filter.Query{Search: tt.search}, 10, 0)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	first := model.FilterSet{
		Type:      model.Choice[string]{Any: true},
		District:  model.Choice[string]{Values: []string{"Мирабадский"}},
		Condition: model.Choice[string]{Any: true},
		Rooms:     model.Choice[int]{Values: []int{2}},
		Area:      model.RangeFacet{Ranges: []string{"40:66"}},
		Price:     model.RangeFacet{Any: true},
	}
	if err := s.SaveSubscription(ctx, 100, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := first
	second.Rooms = model.Choice[int]{Values: []int{3, 4}}
	if err := s.SaveSubscription(ctx, 100, second); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := s.GetSubscription(ctx, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(second, got.Filters); diff != "" {
		t.Errorf("last write should win (-want +got):\n%s", diff)
	}

	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}

	deleted, err := s.DeleteSubscription(ctx, 100)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.DeleteSubscription(ctx, 100)
	if err != nil || deleted {
		t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
	}
	if _, err := s.GetSubscription(ctx, 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSubscriptionRejectsMalformedRange(t *testing.T) {
	s := newTestDB(t)
	fs := model.FilterSet{Price: model.RangeFacet{Ranges: []string{"cheap:"}}}
	if err := s.SaveSubscription(context.Background(), 1, fs); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestSubscriptionRoundTripKeepsMatchDecisions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	fs := model.FilterSet{
		Type:      model.Choice[string]{Values: []string{model.TypeSecondary}},
		District:  model.Choice[string]{Values: []string{"Мирабадский"}, Any: true},
		Condition: model.Choice[string]{Values: []string{model.ConditionRenovated, model.ConditionAverage}},
		Rooms:     model.Choice[int]{Any: true},
		Area:      model.RangeFacet{Ranges: []string{"0:40", "67:85"}},
		Price:     model.RangeFacet{Ranges: []string{"70000:100000", "200000:999999"}},
	}
	if err := s.SaveSubscription(ctx, 7, fs); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := s.GetSubscription(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	for i, l := range []model.Listing{
		newListing("Юнусабадский", 3, 72.5, 95000),
		newListing("Мирабадский", 1, 30, 65000),
		newListing("Мирабадский", 2, 50, 80000),
		newListing("Яшнабадский", 5, 210, 300000),
		newListing("Яшнабадский", 5, 84, 250000),
	} {
		if filter.Match(l, fs) != filter.Match(l, loaded.Filters) {
			t.Errorf("listing %d: decision changed after reload", i)
		}
	}
}

func TestListSubscriptionsSkipsUnreadableRows(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	good := model.FilterSet{District: model.Choice[string]{Values: []string{"Мирабадский"}}}
	if err := s.SaveSubscription(ctx, 1, good); err != nil {
		t.Fatalf("save: %v", err)
	}
	for userID, raw := range map[int64]string{
		2: `{"area": {"ranges": ["abc"]}}`,
		3: `{not json`,
	} {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO subscriptions (user_id, filters, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			userID, raw, now(), now(),
		)
		if err != nil {
			t.Fatalf("insert raw row %d: %v", userID, err)
		}
	}

	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].UserID != 1 {
		t.Fatalf("subscriptions = %+v, want only user 1", subs)
	}
	if diff := cmp.Diff(good, subs[0].Filters, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}

	var ferr *FiltersError
	if _, err := s.GetSubscription(ctx, 2); !errors.As(err, &ferr) || ferr.UserID != 2 {
		t.Errorf("get unreadable subscription: %v", err)
	}
}

func TestCursorMonotonic(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if _, ok, err := s.Cursor(ctx); err != nil || ok {
		t.Fatalf("fresh cursor: ok=%v err=%v", ok, err)
	}

	for _, step := range []struct {
		advance int64
		want    int64
	}{
		{advance: 100, want: 100},
		{advance: 105, want: 105},
		{advance: 90, want: 105},
		{advance: 105, want: 105},
	} {
		if err := s.AdvanceCursor(ctx, step.advance); err != nil {
			t.Fatalf("advance %d: %v", step.advance, err)
		}
		got, ok, err := s.Cursor(ctx)
		if err != nil || !ok {
			t.Fatalf("cursor: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(step.want, got); diff != "" {
			t.Errorf("after advance %d (-want +got):\n%s", step.advance, diff)
		}
	}
}
