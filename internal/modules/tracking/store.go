// README: Tracking store for job geofences, GPS events and customer devices in PostgreSQL.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenroute/internal/geo"
	"greenroute/internal/geofence"
	"greenroute/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadGeofences returns the job's configured geofences. A job without any
// gets a single default-radius circle around its own coordinates.
func (s *Store) LoadGeofences(ctx context.Context, jobID types.ID) ([]geofence.Geofence, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, center_latitude, center_longitude, COALESCE(radius_meters, 0), polygon
		FROM job_geofences
		WHERE job_id = $1
		ORDER BY id`,
		string(jobID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []geofence.Geofence
	for rows.Next() {
		g := geofence.Geofence{JobID: jobID}
		var polygon []byte
		if err := rows.Scan(&g.ID, &g.Center.Lat, &g.Center.Lng, &g.RadiusMeters, &polygon); err != nil {
			return nil, err
		}
		if len(polygon) > 0 {
			if err := json.Unmarshal(polygon, &g.Polygon); err != nil {
				return nil, fmt.Errorf("geofence %s polygon: %w", g.ID, err)
			}
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}

	var lat, lng *float64
	err = s.db.QueryRow(ctx, `SELECT latitude, longitude FROM jobs WHERE id = $1`, string(jobID)).Scan(&lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoGeofences
	}
	if err != nil {
		return nil, err
	}
	if lat == nil || lng == nil {
		return nil, ErrNoGeofences
	}
	return []geofence.Geofence{{ID: jobID, JobID: jobID, Center: geo.Point{Lat: *lat, Lng: *lng}}}, nil
}

func (s *Store) RecordEvent(ctx context.Context, rec geofence.Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO gps_events (job_id, landscaper_id, latitude, longitude, event_type, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(rec.JobID), string(rec.LandscaperID), rec.Latitude, rec.Longitude,
		string(rec.EventType), rec.RecordedAt,
	)
	return err
}

// CustomerDeviceToken returns the push token of the customer who booked the
// job, or "" when they have not registered a device.
func (s *Store) CustomerDeviceToken(ctx context.Context, jobID types.ID) (string, error) {
	var token *string
	err := s.db.QueryRow(ctx, `
		SELECT c.device_token
		FROM jobs j
		JOIN customers c ON c.id = j.customer_id
		WHERE j.id = $1`,
		string(jobID),
	).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}
