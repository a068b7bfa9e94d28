// Package postgres implements domain.AddressStore on PostgreSQL via pgx.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

//go:embed schema.sql
var schema string

var _ domain.AddressStore = (*Store)(nil)

const uniqueViolation = "23505"

const selectColumns = `id::text, address, address_normalized, latitude, longitude, geocode_raw,
    wildfire_data, wildfire_fetched_at, created_at, updated_at`

const findByNormalizedSQL = `SELECT ` + selectColumns + ` FROM addresses WHERE address_normalized = $1`

const findByIDSQL = `SELECT ` + selectColumns + ` FROM addresses WHERE id = $1`

const countSQL = `SELECT COUNT(*) FROM addresses`

const findPageSQL = `
    SELECT ` + selectColumns + `
    FROM addresses
    ORDER BY created_at DESC, id DESC
    LIMIT $1 OFFSET $2
`

const insertSQL = `
    INSERT INTO addresses (id, address, address_normalized, latitude, longitude, geocode_raw,
        wildfire_data, wildfire_fetched_at, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    ON CONFLICT (address_normalized) DO NOTHING
    RETURNING id::text
`

const findStaleSQL = `
    SELECT ` + selectColumns + `
    FROM addresses
    WHERE latitude IS NOT NULL AND longitude IS NOT NULL
      AND (wildfire_fetched_at IS NULL OR wildfire_fetched_at < $1)
    ORDER BY wildfire_fetched_at ASC NULLS FIRST, created_at ASC, id ASC
    LIMIT $2
`

const saveSQL = `
    UPDATE addresses
    SET wildfire_data = $2, wildfire_fetched_at = $3, updated_at = $4
    WHERE id = $1
`

// Store is a PostgreSQL-backed AddressStore.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the schema. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) FindByNormalizedText(ctx context.Context, normalized string) (domain.Address, error) {
	return scanOne(s.pool.QueryRow(ctx, findByNormalizedSQL, normalized))
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.Address, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Address{}, domain.ErrNotFound
	}
	return scanOne(s.pool.QueryRow(ctx, findByIDSQL, parsed))
}

func (s *Store) FindPage(ctx context.Context, limit, offset int) ([]domain.Address, int, error) {
	batch := &pgx.Batch{}
	batch.Queue(countSQL)
	batch.Queue(findPageSQL, limit, offset)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var total int
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting addresses: %w", err)
	}

	rows, err := br.Query()
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

	id := uuid.New()
	var stored string
	err = s.pool.QueryRow(ctx, insertSQL,
		id,
		addr.Address,
		addr.AddressNormalized,
		addr.Latitude,
		addr.Longitude,
		nullableJSON(addr.GeocodeRaw),
		string(wildfire),
		addr.WildfireFetchedAt,
		addr.CreatedAt,
		addr.UpdatedAt,
	).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Address{}, domain.ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Address{}, domain.ErrConflict
	}
	if err != nil {
		return domain.Address{}, fmt.Errorf("inserting address: %w", err)
	}

	addr.ID = stored
	return addr, nil
}

func (s *Store) FindStale(ctx context.Context, staleBefore time.Time, limit int) ([]domain.Address, error) {
	rows, err := s.pool.Query(ctx, findStaleSQL, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stale addresses: %w", err)
	}
	return scanAll(rows)
}

func (s *Store) Save(ctx context.Context, addr domain.Address) error {
	parsed, err := uuid.Parse(addr.ID)
	if err != nil {
		return domain.ErrNotFound
	}
	wildfire, err := json.Marshal(addr.WildfireData)
	if err != nil {
		return fmt.Errorf("encoding wildfire data: %w", err)
	}

	tag, err := s.pool.Exec(ctx, saveSQL, parsed, string(wildfire), addr.WildfireFetchedAt, addr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOne(row pgx.Row) (domain.Address, error) {
	addr, err := scanAddress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Address{}, domain.ErrNotFound
	}
	return addr, err
}

func scanAll(rows pgx.Rows) ([]domain.Address, error) {
	defer rows.Close()

	items := make([]domain.Address, 0)
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

func scanAddress(row pgx.Row) (domain.Address, error) {
	var (
		addr       domain.Address
		geocodeRaw []byte
		wildfire   []byte
	)
	err := row.Scan(
		&addr.ID,
		&addr.Address,
		&addr.AddressNormalized,
		&addr.Latitude,
		&addr.Longitude,
		&geocodeRaw,
		&wildfire,
		&addr.WildfireFetchedAt,
		&addr.CreatedAt,
		&addr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Address{}, err
		}
		return domain.Address{}, fmt.Errorf("scanning address: %w", err)
	}

	if len(geocodeRaw) > 0 {
		addr.GeocodeRaw = json.RawMessage(geocodeRaw)
	}
	if err := json.Unmarshal(wildfire, &addr.WildfireData); err != nil {
		return domain.Address{}, fmt.Errorf("decoding wildfire data for %s: %w", addr.ID, err)
	}
	return addr, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
