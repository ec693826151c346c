package repository

import (
	"context"
	"io"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

// BlobRepository opens a raw input file by location (local path or s3://bucket/key).
type BlobRepository interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// TripRepository loads the raw trip rows of one monthly file.
type TripRepository interface {
	LoadTrips(ctx context.Context, location string) ([]entity.RawTrip, error)
}

// ZoneRepository loads the taxi zone lookup table.
type ZoneRepository interface {
	LoadZones(ctx context.Context, location string) (entity.ZoneLookup, error)
}
