// Command import loads listings from a JSON file into the listing database.
// The file holds an array of listings in the same shape the API returns;
// ids are ignored and image_url values are stored as image paths.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"estate_bot/internal/api/dto"
	"estate_bot/internal/config"
	"estate_bot/internal/logging"
	"estate_bot/internal/model"
	"estate_bot/internal/storage"
)

type args struct {
	DB       string `arg:"--db,env:DATABASE_PATH" default:"./data/estate.db" help:"path to sqlite database"`
	DryRun   bool   `arg:"--dry-run" help:"validate the file without writing anything"`
	LogLevel string `arg:"--log-level,env:LOG_LEVEL" default:"info" help:"debug, info, warn or error"`
	File     string `arg:"positional,required" help:"JSON file with an array of listings"`
}

func (args) Description() string {
	return "Imports apartment listings into the listing database."
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load environment", "error", err)
		os.Exit(1)
	}

	var a args
	arg.MustParse(&a)

	log := logging.New(os.Stderr, a.LogLevel, false)

	if err := run(context.Background(), a, log); err != nil {
		log.Error("import failed", "file", a.File, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a args, log *slog.Logger) error {
	f, err := os.Open(a.File)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	listings, err := decode(f)
	if err != nil {
		return err
	}
	if a.DryRun {
		log.Info("file is valid", "listings", len(listings))
		return nil
	}

	if dir := filepath.Dir(a.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := storage.NewSQLite(a.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	n, err := importListings(ctx, store, listings)
	log.Info("listings imported", "count", n, "db", a.DB)
	return err
}

//go:embed listings.schema.json
var schemaJSON string

const schemaURL = "listings.schema.json"

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// decode reads and validates every listing before anything is written, so a
// bad file imports nothing. The schema catches shape errors with a JSON
// pointer to the offending value; the struct rules catch the rest.
func decode(r io.Reader) ([]model.Listing, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("file does not match schema: %w", err)
	}

	var raw []dto.Listing
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	listings := make([]model.Listing, 0, len(raw))
	for i, lr := range raw {
		l := lr.Model()
		l.ID = 0
		for j := range l.Images {
			l.Images[j].ID = 0
		}
		if err := storage.Validate(l); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func importListings(ctx context.Context, store storage.Listings, listings []model.Listing) (int, error) {
	for i := range listings {
		if err := store.CreateListing(ctx, &listings[i]); err != nil {
			return i, fmt.Errorf("create listing %d: %w", i, err)
		}
	}
	return len(listings), nil
}
