package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"stayfinder/models"
	"stayfinder/utils"
)

const (
	listingColumns = 17
	batchSize      = 50
)

// PostgresStore mirrors the listing snapshot and stores favorite sets in
// PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

var (
	_ ListingWriter = (*PostgresStore)(nil)
	_ ListingReader = (*PostgresStore)(nil)
)

// NewPostgresStore opens a connection, waits for the server to accept it,
// runs schema migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id             TEXT          PRIMARY KEY,
			name           TEXT          NOT NULL DEFAULT '',
			address        TEXT          NOT NULL DEFAULT '',
			price          NUMERIC(12,2) NOT NULL DEFAULT 0,
			rent_unit      TEXT          NOT NULL DEFAULT '',
			property_type  TEXT          NOT NULL DEFAULT '',
			bedrooms       INTEGER       NOT NULL DEFAULT 0,
			bathrooms      INTEGER       NOT NULL DEFAULT 0,
			rating         NUMERIC(3,2),
			features       TEXT[]        NOT NULL DEFAULT '{}',
			images         TEXT[]        NOT NULL DEFAULT '{}',
			available_from TEXT          NOT NULL DEFAULT '',
			description    TEXT          NOT NULL DEFAULT '',
			area           TEXT          NOT NULL DEFAULT '',
			lat            DOUBLE PRECISION,
			lng            DOUBLE PRECISION,
			contact        JSONB,
			position       INTEGER       NOT NULL DEFAULT 0,
			updated_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_position ON listings(position);

		CREATE TABLE IF NOT EXISTS favorite_sets (
			storage_key TEXT        PRIMARY KEY,
			ids         JSONB       NOT NULL DEFAULT '[]',
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// Write replaces the stored snapshot with listings in one transaction.
func (ps *PostgresStore) Write(ctx context.Context, listings []*models.Listing) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := insertBatch(ctx, tx, listings[i:end], i); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	ps.logger.Debug("[postgres] Snapshot of %d listings stored", len(listings))
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.Listing, offset int) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		placeholders := make([]string, listingColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", idx*listingColumns+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var rating, lat, lng sql.NullFloat64
		if l.Rating != nil {
			rating = sql.NullFloat64{Float64: *l.Rating, Valid: true}
		}
		if l.Coordinates != nil {
			lat = sql.NullFloat64{Float64: l.Coordinates.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: l.Coordinates.Lng, Valid: true}
		}
		var contact sql.NullString
		if l.Contact != nil {
			data, err := json.Marshal(l.Contact)
			if err != nil {
				return err
			}
			contact = sql.NullString{String: string(data), Valid: true}
		}

		valueArgs = append(valueArgs,
			l.ID.String(), l.Name, l.Address, l.Price, l.RentUnit, l.PropertyType,
			l.Bedrooms, l.Bathrooms, rating, pq.Array(nonNil(l.Features)), pq.Array(nonNil(l.Images)),
			l.AvailableFrom, l.Description, l.Area, lat, lng, contact,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (id, name, address, price, rent_unit, property_type,
			bedrooms, bathrooms, rating, features, images,
			available_from, description, area, lat, lng, contact)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return err
	}

	// keep catalog order for FetchAll
	ids := make([]string, len(batch))
	for i, l := range batch {
		ids[i] = l.ID.String()
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE listings SET position = $1 + array_position($2::text[], id)
		WHERE id = ANY($2::text[])
	`, offset, pq.Array(ids))
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// FetchAll reads the stored snapshot in its original order.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, name, address, price, rent_unit, property_type, bedrooms, bathrooms,
		       rating, features, images, available_from, description, area, lat, lng, contact
		FROM listings
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var id string
		var rating, lat, lng sql.NullFloat64
		var contact []byte
		if err := rows.Scan(
			&id, &l.Name, &l.Address, &l.Price, &l.RentUnit, &l.PropertyType,
			&l.Bedrooms, &l.Bathrooms, &rating, pq.Array(&l.Features), pq.Array(&l.Images),
			&l.AvailableFrom, &l.Description, &l.Area, &lat, &lng, &contact,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		l.ID = models.ListingID(id)
		if rating.Valid {
			r := rating.Float64
			l.Rating = &r
		}
		if lat.Valid && lng.Valid {
			l.Coordinates = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		if len(contact) > 0 {
			l.Contact = &models.Contact{}
			if err := json.Unmarshal(contact, l.Contact); err != nil {
				ps.logger.Warn("[postgres] Bad contact for %s: %v", id, err)
				l.Contact = nil
			}
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Load implements services.FavoriteStore.
func (ps *PostgresStore) Load(ctx context.Context, owner string) (models.FavoriteSet, error) {
	var data []byte
	err := ps.db.QueryRowContext(ctx,
		"SELECT ids FROM favorite_sets WHERE storage_key = $1", models.FavoritesKey(owner),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewFavoriteSet(), nil
	}
	if err != nil {
		return models.FavoriteSet{}, fmt.Errorf("postgres: load favorites: %w", err)
	}
	return models.ParseFavoriteSet(data), nil
}

// Save implements services.FavoriteStore.
func (ps *PostgresStore) Save(ctx context.Context, owner string, set models.FavoriteSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("postgres: encode favorites: %w", err)
	}
	_, err = ps.db.ExecContext(ctx, `
		INSERT INTO favorite_sets (storage_key, ids, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (storage_key) DO UPDATE SET ids = EXCLUDED.ids, updated_at = NOW()
	`, models.FavoritesKey(owner), string(data))
	if err != nil {
		return fmt.Errorf("postgres: save favorites: %w", err)
	}
	return nil
}

// Clear implements services.FavoriteStore.
func (ps *PostgresStore) Clear(ctx context.Context, owner string) error {
	if _, err := ps.db.ExecContext(ctx,
		"DELETE FROM favorite_sets WHERE storage_key = $1", models.FavoritesKey(owner),
	); err != nil {
		return fmt.Errorf("postgres: clear favorites: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
