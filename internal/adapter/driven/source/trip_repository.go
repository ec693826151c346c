package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Column names of the TLC yellow-taxi trip file.
const (
	colVendorID             = "VendorID"
	colPickup               = "tpep_pickup_datetime"
	colDropoff              = "tpep_dropoff_datetime"
	colPassengerCount       = "passenger_count"
	colTripDistance         = "trip_distance"
	colRatecodeID           = "RatecodeID"
	colStoreAndFwdFlag      = "store_and_fwd_flag"
	colPULocationID         = "PULocationID"
	colDOLocationID         = "DOLocationID"
	colPaymentType          = "payment_type"
	colFareAmount           = "fare_amount"
	colExtra                = "extra"
	colMTATax               = "mta_tax"
	colTipAmount            = "tip_amount"
	colTollsAmount          = "tolls_amount"
	colImprovementSurcharge = "improvement_surcharge"
	colTotalAmount          = "total_amount"
	colCongestionSurcharge  = "congestion_surcharge"
	colAirportFee           = "airport_fee"
)

// RequiredColumns must be present in every trip file.
var RequiredColumns = []string{
	colPickup, colDropoff, colPassengerCount, colTripDistance, colRatecodeID,
	colPULocationID, colDOLocationID, colPaymentType, colFareAmount, colExtra,
	colMTATax, colTipAmount, colTollsAmount, colImprovementSurcharge, colTotalAmount,
}

// TripRepositoryImpl parses trip CSV files opened through a BlobRepository.
type TripRepositoryImpl struct {
	files repository.BlobRepository
}

// NewTripRepository cria um repositório de viagens sobre files.
func NewTripRepository(files repository.BlobRepository) repository.TripRepository {
	return &TripRepositoryImpl{files: files}
}

func (r *TripRepositoryImpl) LoadTrips(ctx context.Context, location string) ([]entity.RawTrip, error) {
	rc, err := r.files.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	trips, err := ParseTrips(rc)
	if err != nil {
		return nil, fmt.Errorf("error reading trips from %s: %w", location, err)
	}
	return trips, nil
}

// ParseTrips reads a trip CSV with a header row. Empty or unparseable cells become missing
// values; a missing required column fails the whole file.
func ParseTrips(in io.Reader) ([]entity.RawTrip, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty trip file", types.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: trip file is missing column(s) %s", types.ErrSchema, strings.Join(missing, ", "))
	}

	var trips []entity.RawTrip
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}
		trips = append(trips, parseTrip(rowReader{cols: cols, record: record}))
	}
	return trips, nil
}

type rowReader struct {
	cols   map[string]int
	record []string
}

func (r rowReader) cell(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r rowReader) float(name string) float64 {
	s := r.cell(name)
	if IsMissing(s) {
		return math.NaN()
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (r rowReader) int(name string) int {
	v := r.float(name)
	if math.IsNaN(v) {
		return 0
	}
	return int(v)
}

func (r rowReader) time(name string) time.Time {
	s := r.cell(name)
	if IsMissing(s) {
		return time.Time{}
	}
	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTrip(r rowReader) entity.RawTrip {
	return entity.RawTrip{
		VendorID:             r.float(colVendorID),
		PickupDatetime:       r.time(colPickup),
		DropoffDatetime:      r.time(colDropoff),
		PassengerCount:       r.float(colPassengerCount),
		TripDistance:         r.float(colTripDistance),
		RatecodeID:           r.float(colRatecodeID),
		StoreAndFwdFlag:      r.cell(colStoreAndFwdFlag),
		PULocationID:         r.int(colPULocationID),
		DOLocationID:         r.int(colDOLocationID),
		PaymentType:          r.float(colPaymentType),
		FareAmount:           r.float(colFareAmount),
		Extra:                r.float(colExtra),
		MTATax:               r.float(colMTATax),
		TipAmount:            r.float(colTipAmount),
		TollsAmount:          r.float(colTollsAmount),
		ImprovementSurcharge: r.float(colImprovementSurcharge),
		TotalAmount:          r.float(colTotalAmount),
		CongestionSurcharge:  r.float(colCongestionSurcharge),
		AirportFee:           r.float(colAirportFee),
	}
}

// IsMissing matches the cell spellings CSV exporters commonly write for no value.
func IsMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
