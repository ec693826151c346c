package entity

import (
	"math"
	"time"
)

// RawTrip represents one row of a monthly yellow-taxi trip file as read from the source.
// Missing numeric cells are NaN and missing timestamps are the zero time.
type RawTrip struct {
	VendorID             float64   `json:"VendorID"`
	PickupDatetime       time.Time `json:"tpep_pickup_datetime"`
	DropoffDatetime      time.Time `json:"tpep_dropoff_datetime"`
	PassengerCount       float64   `json:"passenger_count"`
	TripDistance         float64   `json:"trip_distance"`
	RatecodeID           float64   `json:"RatecodeID"`
	StoreAndFwdFlag      string    `json:"store_and_fwd_flag"`
	PULocationID         int       `json:"PULocationID"`
	DOLocationID         int       `json:"DOLocationID"`
	PaymentType          float64   `json:"payment_type"`
	FareAmount           float64   `json:"fare_amount"`
	Extra                float64   `json:"extra"`
	MTATax               float64   `json:"mta_tax"`
	TipAmount            float64   `json:"tip_amount"`
	TollsAmount          float64   `json:"tolls_amount"`
	ImprovementSurcharge float64   `json:"improvement_surcharge"`
	TotalAmount          float64   `json:"total_amount"`
	CongestionSurcharge  float64   `json:"congestion_surcharge"`
	AirportFee           float64   `json:"airport_fee"`
}

// NewRawTrip returns a row with every numeric cell missing.
func NewRawTrip() RawTrip {
	nan := math.NaN()
	return RawTrip{
		VendorID:             nan,
		PassengerCount:       nan,
		TripDistance:         nan,
		RatecodeID:           nan,
		PaymentType:          nan,
		FareAmount:           nan,
		Extra:                nan,
		MTATax:               nan,
		TipAmount:            nan,
		TollsAmount:          nan,
		ImprovementSurcharge: nan,
		TotalAmount:          nan,
		CongestionSurcharge:  nan,
		AirportFee:           nan,
	}
}

// TripRecord is the normalized, enriched trip used by every downstream stage.
// Index is the position of the row in the raw batch and ties the record to its QA flags.
type TripRecord struct {
	Index int `json:"index"`

	PickupDatetime  time.Time `json:"tpep_pickup_datetime"`
	DropoffDatetime time.Time `json:"tpep_dropoff_datetime"`
	PassengerCount  float64   `json:"passenger_count"`
	TripDistance    float64   `json:"trip_distance"`
	RatecodeID      float64   `json:"RatecodeID"`
	PULocationID    int       `json:"PULocationID"`
	DOLocationID    int       `json:"DOLocationID"`
	PaymentType     float64   `json:"payment_type"`

	FareAmount           float64 `json:"fare_amount"`
	Extra                float64 `json:"extra"`
	MTATax               float64 `json:"mta_tax"`
	TipAmount            float64 `json:"tip_amount"`
	TollsAmount          float64 `json:"tolls_amount"`
	ImprovementSurcharge float64 `json:"improvement_surcharge"`
	TotalAmount          float64 `json:"total_amount"`
	CongestionSurcharge  float64 `json:"congestion_surcharge"`
	AirportFee           float64 `json:"airport_fee"`
	ComputedTotalAmount  float64 `json:"computed_total_amount"`

	RatecodeName    string `json:"ratecodeID_name"`
	PaymentTypeName string `json:"payment_type_name"`

	DurationSeconds float64 `json:"trip_duration_seconds"`
	DurationMinutes float64 `json:"trip_duration_minutes"`
	AvgSpeedMPH     float64 `json:"avg_speed_mph"`
	PickupDayOfWeek string  `json:"pickup_day_of_week"`

	PUBorough string `json:"PU_Borough"`
	PUZone    string `json:"PU_Zone"`
	DOBorough string `json:"DO_Borough"`
	DOZone    string `json:"DO_Zone"`
}

// HasPickup reports whether the pickup timestamp was present in the source.
func (t TripRecord) HasPickup() bool { return !t.PickupDatetime.IsZero() }

// HasDropoff reports whether the dropoff timestamp was present in the source.
func (t TripRecord) HasDropoff() bool { return !t.DropoffDatetime.IsZero() }
