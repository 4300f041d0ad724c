package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"wayfarer/internal/model"
)

// Destinations are stored as one JSONB document per itinerary so their
// order and nested activities round-trip unchanged.
const schema = `
CREATE TABLE IF NOT EXISTS itineraries (
    id           uuid PRIMARY KEY,
    user_id      integer NOT NULL,
    name         text NOT NULL,
    start_date   text NOT NULL DEFAULT '',
    end_date     text NOT NULL DEFAULT '',
    description  text NOT NULL DEFAULT '',
    destinations jsonb NOT NULL DEFAULT '[]'::jsonb,
    created_at   timestamptz NOT NULL DEFAULT now(),
    updated_at   timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS itineraries_user_idx ON itineraries (user_id, created_at);
`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

const selectCols = `SELECT id::text, user_id, name, start_date, end_date, description, destinations FROM itineraries`

func (p *Postgres) ListItineraries(ctx context.Context, userID *int) ([]model.Itinerary, error) {
	var rows *sql.Rows
	var err error
	if userID != nil {
		rows, err = p.db.QueryContext(ctx, selectCols+` WHERE user_id=$1 ORDER BY created_at, id`, *userID)
	} else {
		rows, err = p.db.QueryContext(ctx, selectCols+` ORDER BY created_at, id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Itinerary{}
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *Postgres) GetItinerary(ctx context.Context, id string) (model.Itinerary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Itinerary{}, ErrNotFound
	}
	it, err := scanItinerary(p.db.QueryRowContext(ctx, selectCols+` WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Itinerary{}, ErrNotFound
	}
	return it, err
}

func (p *Postgres) CreateItinerary(ctx context.Context, in model.NewItinerary) (model.Itinerary, error) {
	it := in.WithID(uuid.New().String())
	it.Normalize()
	dests, err := json.Marshal(it.Destinations)
	if err != nil {
		return model.Itinerary{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO itineraries (id, user_id, name, start_date, end_date, description, destinations) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		it.ID, it.UserID, it.Name, it.StartDate, it.EndDate, it.Description, dests)
	if err != nil {
		return model.Itinerary{}, err
	}
	return it, nil
}

func (p *Postgres) ReplaceItinerary(ctx context.Context, it model.Itinerary) (model.Itinerary, error) {
	if _, err := uuid.Parse(it.ID); err != nil {
		return model.Itinerary{}, ErrNotFound
	}
	it = it.Clone()
	it.Normalize()
	dests, err := json.Marshal(it.Destinations)
	if err != nil {
		return model.Itinerary{}, err
	}
	// user_id is fixed at creation; the stored owner is returned
	err = p.db.QueryRowContext(ctx, `UPDATE itineraries SET name=$2, start_date=$3, end_date=$4, description=$5, destinations=$6, updated_at=now() WHERE id=$1 RETURNING user_id`,
		it.ID, it.Name, it.StartDate, it.EndDate, it.Description, dests).Scan(&it.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Itinerary{}, ErrNotFound
	}
	if err != nil {
		return model.Itinerary{}, err
	}
	return it, nil
}

func (p *Postgres) DeleteItinerary(ctx context.Context, id string) (model.Itinerary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Itinerary{}, ErrNotFound
	}
	it, err := scanItinerary(p.db.QueryRowContext(ctx, `DELETE FROM itineraries WHERE id=$1 RETURNING id::text, user_id, name, start_date, end_date, description, destinations`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Itinerary{}, ErrNotFound
	}
	return it, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItinerary(row scanner) (model.Itinerary, error) {
	var it model.Itinerary
	var dests []byte
	if err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.StartDate, &it.EndDate, &it.Description, &dests); err != nil {
		return it, err
	}
	if err := decodeDestinations(dests, &it); err != nil {
		return it, fmt.Errorf("store: itinerary %s: %w", it.ID, err)
	}
	return it, nil
}

func decodeDestinations(raw []byte, it *model.Itinerary) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &it.Destinations); err != nil {
			return err
		}
	}
	it.Normalize()
	return nil
}
