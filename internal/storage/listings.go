package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"estate_bot/internal/filter"
	"estate_bot/internal/model"
)

const listingColumns = `id, type, district, condition, area, rooms, price, address, orientation,
	floor, floors_total, description, contact_name, contact_phone, created_at, updated_at`

// CreateListing validates and inserts a listing with its images, populating
// the generated IDs. A zero CreatedAt is set to the current time.
func (s *SQLite) CreateListing(ctx context.Context, l *model.Listing) error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("validate listing: %w", err)
	}

	created := now()
	if !l.CreatedAt.IsZero() {
		created = l.CreatedAt.UTC().Format(timeLayout)
	}
	updated := now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO listings (type, district, condition, area, rooms, price, address, orientation,
		     floor, floors_total, description, contact_name, contact_phone, search_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Type, l.District, l.Condition, l.Area, l.Rooms, l.Price, l.Address, l.Orientation,
		l.Floor, l.FloorsTotal, l.Description, l.ContactName, l.ContactPhone,
		searchText(l), created, updated,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for i := range l.Images {
		img := &l.Images[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO listing_images (listing_id, path, sort_order) VALUES (?, ?, ?)`,
			id, img.Path, img.Order,
		)
		if err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
		if img.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	l.ID = id
	l.CreatedAt = parseTime(created)
	l.UpdatedAt = parseTime(updated)
	return nil
}

// GetListing returns a single listing with its images.
func (s *SQLite) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	listings := []model.Listing{*l}
	if err := s.attachImages(ctx, listings); err != nil {
		return nil, err
	}
	return &listings[0], nil
}

// SearchListings returns one page of listings matching q and the total number
// of matches.
func (s *SQLite) SearchListings(ctx context.Context, q filter.Query, limit, offset int) ([]model.Listing, int, error) {
	where, args := applyFilters(q)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}
	if total == 0 || offset < 0 || offset >= total {
		return nil, total, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings`+where+orderClause(q.Ordering)+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query listings: %w", err)
	}
	listings, err := scanListings(rows)
	_ = rows.Close()
	if err != nil {
		return nil, 0, err
	}

	if err := s.attachImages(ctx, listings); err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (s *SQLite) attachImages(ctx context.Context, listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]any, len(listings))
	index := make(map[int64]int, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		index[l.ID] = i
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, listing_id, path, sort_order FROM listing_images
		 WHERE listing_id IN (`+placeholders(len(ids))+`) ORDER BY sort_order, id`, ids...,
	)
	if err != nil {
		return fmt.Errorf("query images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var img model.Image
		var listingID int64
		if err := rows.Scan(&img.ID, &listingID, &img.Path, &img.Order); err != nil {
			return fmt.Errorf("scan image: %w", err)
		}
		i := index[listingID]
		listings[i].Images = append(listings[i].Images, img)
	}
	return rows.Err()
}

func searchText(l *model.Listing) string {
	return strings.ToLower(strings.Join([]string{l.Address, l.District, l.Description}, "\n"))
}

func scanListing(row scannable) (*model.Listing, error) {
	var l model.Listing
	var created, updated string
	err := row.Scan(&l.ID, &l.Type, &l.District, &l.Condition, &l.Area, &l.Rooms, &l.Price,
		&l.Address, &l.Orientation, &l.Floor, &l.FloorsTotal, &l.Description,
		&l.ContactName, &l.ContactPhone, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	l.CreatedAt = parseTime(created)
	l.UpdatedAt = parseTime(updated)
	return &l, nil
}

func scanListings(rows *sql.Rows) ([]model.Listing, error) {
	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}
