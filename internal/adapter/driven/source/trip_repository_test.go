package source

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

const tripHeader = "VendorID,tpep_pickup_datetime,tpep_dropoff_datetime,passenger_count,trip_distance,RatecodeID,store_and_fwd_flag,PULocationID,DOLocationID,payment_type,fare_amount,extra,mta_tax,tip_amount,tolls_amount,improvement_surcharge,total_amount,congestion_surcharge,airport_fee\n"

const tripCSV = tripHeader +
	"2,2024-01-01 00:57:55,2024-01-01 01:17:43,1,1.72,1,N,186,79,2,17.7,1,0.5,0,0,1,22.7,2.5,0\n" +
	"1,2024-01-01 00:03:00,,,3.1,,N,140,236,1,14.2,3.5,0.5,3.75,0,1,22.95,2.5,\n"

type remoteStub struct{ opened []string }

func (s *remoteStub) Open(_ context.Context, location string) (io.ReadCloser, error) {
	s.opened = append(s.opened, location)
	return io.NopCloser(strings.NewReader(tripCSV)), nil
}

func TestLoadTripsFromLocalFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/yellow_tripdata_2024-01.csv", []byte(tripCSV), 0o644))

	repo := NewTripRepository(NewFileRepository(fs, nil))
	trips, err := repo.LoadTrips(context.Background(), "/data/yellow_tripdata_2024-01.csv")
	require.NoError(t, err)
	require.Len(t, trips, 2)

	first := trips[0]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 57, 55, 0, time.UTC), first.PickupDatetime)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 17, 43, 0, time.UTC), first.DropoffDatetime)
	assert.Equal(t, 1.72, first.TripDistance)
	assert.Equal(t, 186, first.PULocationID)
	assert.Equal(t, 79, first.DOLocationID)
	assert.Equal(t, "N", first.StoreAndFwdFlag)
	assert.Equal(t, 22.7, first.TotalAmount)
	assert.Equal(t, 0.0, first.AirportFee)

	second := trips[1]
	assert.True(t, second.DropoffDatetime.IsZero())
	assert.True(t, math.IsNaN(second.PassengerCount))
	assert.True(t, math.IsNaN(second.RatecodeID))
	assert.True(t, math.IsNaN(second.AirportFee))
	assert.Equal(t, 3.75, second.TipAmount)
}

func TestLoadTripsRoutesS3ToRemote(t *testing.T) {
	remote := &remoteStub{}
	repo := NewTripRepository(NewFileRepository(afero.NewMemMapFs(), remote))

	trips, err := repo.LoadTrips(context.Background(), "s3://tlc/yellow_tripdata_2024-01.csv")
	require.NoError(t, err)
	assert.Len(t, trips, 2)
	assert.Equal(t, []string{"s3://tlc/yellow_tripdata_2024-01.csv"}, remote.opened)
}

func TestLoadTripsErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/short.csv", []byte("tpep_pickup_datetime,fare_amount\n2024-01-01 00:00:00,1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/empty.csv", nil, 0o644))
	require.NoError(t, fs.MkdirAll("/data/dir.csv", 0o755))

	repo := NewTripRepository(NewFileRepository(fs, nil))
	ctx := context.Background()

	_, err := repo.LoadTrips(ctx, "/data/short.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchema))
	assert.Contains(t, err.Error(), "trip_distance")
	assert.NotContains(t, err.Error(), "airport_fee")

	_, err = repo.LoadTrips(ctx, "/data/empty.csv")
	assert.True(t, errors.Is(err, types.ErrSchema))

	_, err = repo.LoadTrips(ctx, "/data/missing.csv")
	assert.Error(t, err)

	_, err = repo.LoadTrips(ctx, "/data/dir.csv")
	assert.Error(t, err)

	_, err = repo.LoadTrips(ctx, "s3://bucket/key.csv")
	assert.True(t, errors.Is(err, types.ErrUnsupportedIO))
}

func TestParseTripsOptionalColumns(t *testing.T) {
	header := strings.Join(RequiredColumns, ",") + "\n"
	row := "2024-02-01 10:00:00,2024-02-01 10:10:00,1,2,1,1,2,1,10,0,0.5,1,0,1,12.5\n"
	trips, err := ParseTrips(strings.NewReader(header + row))
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.True(t, math.IsNaN(trips[0].CongestionSurcharge))
	assert.True(t, math.IsNaN(trips[0].VendorID))
	assert.Equal(t, 12.5, trips[0].TotalAmount)
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "NA", "N/A", "NaN", "null", "None"} {
		assert.True(t, IsMissing(s), s)
	}
	assert.False(t, IsMissing("0"))
	assert.False(t, IsMissing("Unknown"))
}
