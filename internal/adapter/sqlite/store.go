// Package sqlite implements domain.AddressStore on an embedded SQLite file.
// Timestamps are stored as Unix nanoseconds and JSON columns as TEXT.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

//go:embed schema.sql
var schema string

var _ domain.AddressStore = (*Store)(nil)

const selectColumns = `id, address, address_normalized, latitude, longitude, geocode_raw,
	wildfire_data, wildfire_fetched_at, created_at, updated_at`

// Store is a SQLite-backed AddressStore.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) FindByNormalizedText(ctx context.Context, normalized string) (domain.Address, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM addresses WHERE address_normalized = ?`, normalized)
	return scanOne(row)
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.Address, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM addresses WHERE id = ?`, id)
	return scanOne(row)
}

func (s *Store) FindPage(ctx context.Context, limit, offset int) ([]domain.Address, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting addresses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM addresses
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing addresses: %w", err)
	}
	items, err := scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) Create(ctx context.Context, addr domain.Address) (domain.Address, error) {
	if err := domain.ValidateNew(addr); err != nil {
		return domain.Address{}, err
	}

	wildfire, err := json.Marshal(addr.WildfireData)
	if err != nil {
		return domain.Address{}, fmt.Errorf("encoding wildfire data: %w", err)
	}

	addr.ID = uuid.NewString()
	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO addresses (id, address, address_normalized, latitude, longitude, geocode_raw,
			wildfire_data, wildfire_fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address_normalized) DO NOTHING
		RETURNING id`,
		addr.ID, addr.Address, addr.AddressNormalized, addr.Latitude, addr.Longitude,
		nullableJSON(addr.GeocodeRaw), string(wildfire), unixNanoPtr(addr.WildfireFetchedAt),
		addr.CreatedAt.UnixNano(), addr.UpdatedAt.UnixNano(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, domain.ErrConflict
	}
	if err != nil {
		return domain.Address{}, fmt.Errorf("inserting address: %w", err)
	}
	addr.ID = id
	return addr, nil
}

func (s *Store) FindStale(ctx context.Context, staleBefore time.Time, limit int) ([]domain.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM addresses
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND (wildfire_fetched_at IS NULL OR wildfire_fetched_at < ?)
		ORDER BY wildfire_fetched_at ASC NULLS FIRST, created_at ASC, id ASC
		LIMIT ?`, staleBefore.UnixNano(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying stale addresses: %w", err)
	}
	return scanAll(rows)
}

func (s *Store) Save(ctx context.Context, addr domain.Address) error {
	wildfire, err := json.Marshal(addr.WildfireData)
	if err != nil {
		return fmt.Errorf("encoding wildfire data: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE addresses
		SET wildfire_data = ?, wildfire_fetched_at = ?, updated_at = ?
		WHERE id = ?`,
		string(wildfire), unixNanoPtr(addr.WildfireFetchedAt), addr.UpdatedAt.UnixNano(), addr.ID)
	if err != nil {
		return fmt.Errorf("updating address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating address: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (domain.Address, error) {
	addr, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, domain.ErrNotFound
	}
	return addr, err
}

func scanAll(rows *sql.Rows) ([]domain.Address, error) {
	defer rows.Close()

	items := []domain.Address{}
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating addresses: %w", err)
	}
	return items, nil
}

func scanAddress(row scanner) (domain.Address, error) {
	var (
		addr       domain.Address
		lat, lng   sql.NullFloat64
		geocodeRaw sql.NullString
		wildfire   string
		fetchedAt  sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	err := row.Scan(&addr.ID, &addr.Address, &addr.AddressNormalized, &lat, &lng,
		&geocodeRaw, &wildfire, &fetchedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Address{}, err
		}
		return domain.Address{}, fmt.Errorf("scanning address: %w", err)
	}

	if lat.Valid && lng.Valid {
		addr.Latitude = &lat.Float64
		addr.Longitude = &lng.Float64
	}
	if geocodeRaw.Valid {
		addr.GeocodeRaw = json.RawMessage(geocodeRaw.String)
	}
	if err := json.Unmarshal([]byte(wildfire), &addr.WildfireData); err != nil {
		return domain.Address{}, fmt.Errorf("decoding wildfire data for %s: %w", addr.ID, err)
	}
	if fetchedAt.Valid {
		t := time.Unix(0, fetchedAt.Int64).UTC()
		addr.WildfireFetchedAt = &t
	}
	addr.CreatedAt = time.Unix(0, createdAt).UTC()
	addr.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return addr, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func unixNanoPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
