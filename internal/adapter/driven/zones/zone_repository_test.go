package zones

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/source"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

const lookupCSV = `"LocationID","Borough","Zone","service_zone"
1,"EWR","Newark Airport","EWR"
132,"Queens","JFK Airport","Airports"
264,"Unknown","N/A","N/A"
265,"N/A","Outside of NYC","N/A"
`

func TestLoadZones(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/raw/taxi_zone_lookup.csv", []byte(lookupCSV), 0o644))

	repo := NewZoneRepository(source.NewFileRepository(fs, nil))
	lookup, err := repo.LoadZones(context.Background(), "/raw/taxi_zone_lookup.csv")
	require.NoError(t, err)
	require.Len(t, lookup, 4)

	assert.Equal(t, entity.Zone{LocationID: 132, Borough: "Queens", Zone: "JFK Airport", ServiceZone: "Airports"}, lookup[132])

	borough, zone := lookup.Resolve(264)
	assert.Equal(t, "Unknown", borough)
	assert.Empty(t, zone)

	borough, zone = lookup.Resolve(265)
	assert.Empty(t, borough)
	assert.Equal(t, "Outside of NYC", zone)
}

func TestParseZonesErrors(t *testing.T) {
	_, err := ParseZones(strings.NewReader(""))
	assert.True(t, errors.Is(err, types.ErrSchema))

	_, err = ParseZones(strings.NewReader("LocationID,Zone\n1,Newark Airport\n"))
	assert.True(t, errors.Is(err, types.ErrSchema))

	_, err = ParseZones(strings.NewReader("LocationID,Borough,Zone\nabc,EWR,Newark\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
