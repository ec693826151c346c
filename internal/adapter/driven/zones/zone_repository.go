package zones

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/source"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// ZoneRepositoryImpl reads taxi_zone_lookup.csv (LocationID,Borough,Zone,service_zone).
type ZoneRepositoryImpl struct {
	files repository.BlobRepository
}

// NewZoneRepository cria um repositório de zonas sobre files.
func NewZoneRepository(files repository.BlobRepository) repository.ZoneRepository {
	return &ZoneRepositoryImpl{files: files}
}

func (r *ZoneRepositoryImpl) LoadZones(ctx context.Context, location string) (entity.ZoneLookup, error) {
	rc, err := r.files.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lookup, err := ParseZones(rc)
	if err != nil {
		return nil, fmt.Errorf("error reading zones from %s: %w", location, err)
	}
	return lookup, nil
}

// ParseZones reads the lookup CSV. Missing Borough/Zone cells ("N/A", "NaN", ...) stay empty,
// which the quality rules treat as unresolved.
func ParseZones(in io.Reader) (entity.ZoneLookup, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty zone lookup", types.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"LocationID", "Borough", "Zone"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: zone lookup is missing column %s", types.ErrSchema, required)
		}
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		v := strings.TrimSpace(record[i])
		if source.IsMissing(v) {
			return ""
		}
		return v
	}

	lookup := make(entity.ZoneLookup)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}

		id, err := cast.ToIntE(cell(record, "LocationID"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid LocationID: %w", line, err)
		}
		lookup[id] = entity.Zone{
			LocationID:  id,
			Borough:     cell(record, "Borough"),
			Zone:        cell(record, "Zone"),
			ServiceZone: cell(record, "service_zone"),
		}
	}
	return lookup, nil
}
