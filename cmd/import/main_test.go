package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"estate_bot/internal/filter"
	"estate_bot/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecode(t *testing.T) {
	f, err := os.Open("testdata/listings.json")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	listings, err := decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("listings = %d, want 3", len(listings))
	}
	if diff := cmp.Diff("listings/yunusabad-1.jpg", listings[0].Images[0].Path); diff != "" {
		t.Errorf("image path mismatch (-want +got):\n%s", diff)
	}
	if listings[0].CreatedAt.IsZero() {
		t.Error("created_at not carried over")
	}
}

func TestDecodeRejectsInvalidListing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"not json", `{`, "decode listings"},
		{"not an array", `{"type": "Новостройка"}`, "schema"},
		{"missing district", `[{"type": "Новостройка", "condition": "С ремонтом", "area": 40, "rooms": 1,
			"price": 1, "address": "a", "contact_name": "b", "contact_phone": "c"}]`, "schema"},
		{"unknown type", `[{"type": "Дача", "district": "Мирабадский", "condition": "С ремонтом", "area": 40,
			"rooms": 1, "price": 1, "address": "a", "contact_name": "b", "contact_phone": "c"}]`, "schema"},
		{"rooms as text", `[{"type": "Новостройка", "district": "Мирабадский", "condition": "С ремонтом", "area": 40,
			"rooms": "2", "price": 1, "address": "a", "contact_name": "b", "contact_phone": "c"}]`, "schema"},
		{"floor above building", `[{"type": "Новостройка", "district": "Мирабадский", "condition": "С ремонтом",
			"area": 40, "rooms": 1, "price": 1, "address": "a", "floor": 9, "floors_total": 5,
			"contact_name": "b", "contact_phone": "c"}]`, "listing 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "data", "estate.db")

	if err := run(ctx, args{DB: db, File: "testdata/listings.json", DryRun: true}, discardLogger()); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Fatalf("dry run touched the database: %v", err)
	}

	if err := run(ctx, args{DB: db, File: "testdata/listings.json"}, discardLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}

	store, err := storage.NewSQLite(db)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	got, count, err := store.SearchListings(ctx, filter.Query{}, 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	var districts []string
	for _, l := range got {
		districts = append(districts, l.District)
	}
	// Newest first; the dated listing is older than the two stamped on import.
	if districts[len(districts)-1] != "Юнусабадский" {
		t.Errorf("order = %v, the dated listing should come last", districts)
	}
}

func TestRunMissingFile(t *testing.T) {
	err := run(context.Background(), args{DB: ":memory:", File: "testdata/missing.json"}, discardLogger())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
