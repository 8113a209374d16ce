package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/pkg/geospatial"
)

// SpotRepo implements ports.SpotRepository with pgx and PostGIS.
type SpotRepo struct {
	db *DB
}

// NewSpotRepo creates a new SpotRepo.
func NewSpotRepo(db *DB) *SpotRepo {
	return &SpotRepo{db: db}
}

const spotColumns = `
	id, name, COALESCE(description, ''),
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lon,
	height_feet, status, COALESCE(submitted_by::text, ''), created_at`

func scanSpot(row pgx.Row, extra ...any) (*domain.Spot, error) {
	var s domain.Spot
	dest := []any{
		&s.ID, &s.Name, &s.Description,
		&s.Location.Lat, &s.Location.Lon,
		&s.HeightFeet, &s.Status, &s.SubmittedBy, &s.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a spot and fills in its generated ID and timestamp.
func (r *SpotRepo) Create(ctx context.Context, s *domain.Spot) error {
	var submittedBy any
	if s.SubmittedBy != "" {
		submittedBy = s.SubmittedBy
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO spots (name, description, location, height_feet, status, submitted_by)
		VALUES ($1, NULLIF($2, ''), ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7)
		RETURNING id, created_at
	`, s.Name, s.Description, s.Location.Lon, s.Location.Lat, s.HeightFeet, s.Status, submittedBy,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert spot: %w", err)
	}
	return nil
}

// GetByID returns a spot by UUID.
func (r *SpotRepo) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	s, err := scanSpot(r.db.Pool.QueryRow(ctx, `SELECT `+spotColumns+` FROM spots WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// FindNearby returns spots with the given status within radiusMeters using
// PostGIS ST_DWithin, nearest first. A bounding-box test runs first so the
// GiST index prunes before distances are computed.
func (r *SpotRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, status domain.SpotStatus, limit int) ([]domain.Spot, error) {
	box := geospatial.Bounds(domain.GeoPoint{Lat: lat, Lon: lon}, radiusMeters)
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+spotColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM spots
		WHERE status = $4
		  AND location && ST_MakeEnvelope($6, $7, $8, $9, 4326)::geography
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $5
	`, lon, lat, radiusMeters, status, limit, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []domain.Spot
	for rows.Next() {
		var dist float64
		s, err := scanSpot(rows, &dist)
		if err != nil {
			return nil, err
		}
		s.Distance = &dist
		spots = append(spots, *s)
	}
	return spots, rows.Err()
}

// SetStatus moves a spot through moderation.
func (r *SpotRepo) SetStatus(ctx context.Context, id string, status domain.SpotStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE spots SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update spot status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
