// Package world is the engine's typed entity store: riders, drivers and
// trips, their state markers, and the back-links between them. The world
// is the sole owner of every entity; every other package holds only
// identifiers and resolves them back through the World (spec.md §3/§9).
package world

import "turbodriver/internal/geohex"

// RiderState is the rider's marker state. Exactly one is set at a time.
type RiderState int

const (
	RiderBrowsing RiderState = iota
	RiderWaiting
	RiderInTransit
	RiderCompleted
	RiderCancelled
)

func (s RiderState) String() string {
	return [...]string{"Browsing", "Waiting", "InTransit", "Completed", "Cancelled"}[s]
}

// DriverState is the driver's marker state. Exactly one is set at a time.
type DriverState int

const (
	DriverIdle DriverState = iota
	DriverEvaluating
	DriverEnRoute
	DriverOnTrip
	DriverOffDuty
)

func (s DriverState) String() string {
	return [...]string{"Idle", "Evaluating", "EnRoute", "OnTrip", "OffDuty"}[s]
}

// TripState is the trip's marker state. Exactly one is set at a time.
type TripState int

const (
	TripEnRoute TripState = iota
	TripOnTrip
	TripCompleted
	TripCancelled
)

func (s TripState) String() string {
	return [...]string{"EnRoute", "OnTrip", "Completed", "Cancelled"}[s]
}

// RejectReason is the closed set of reasons a rider rejected a quote.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectPriceTooHigh
	RejectEtaTooLong
	RejectStochastic
)

func (r RejectReason) String() string {
	switch r {
	case RejectPriceTooHigh:
		return "PriceTooHigh"
	case RejectEtaTooLong:
		return "EtaTooLong"
	case RejectStochastic:
		return "Stochastic"
	default:
		return "None"
	}
}

// Quote is the transient component attached to a Browsing rider between
// ShowQuote and QuoteDecision/QuoteAccepted.
type Quote struct {
	Fare  float64
	EtaMS int64
}

// Rider is the rider entity. A zero value MatchedDriverID/AssignedTripID
// means "none" — ids are allocated starting at 1.
type Rider struct {
	ID              int64
	Cell            geohex.Cell
	HasDest         bool
	Dest            geohex.Cell
	FirstSeenMS     int64
	QuoteRejections int
	HasAcceptedFare bool
	AcceptedFare    float64
	LastReject      RejectReason
	MatchedDriverID int64
	AssignedTripID  int64
	CancelDeadlineMS int64
	State           RiderState
	Quote           *Quote
}

// Earnings is the driver's economic sub-record.
type Earnings struct {
	Accrued        float64
	Target         float64
	SessionStartMS int64
	HasSessionEnd  bool
	SessionEndMS   int64
}

// Fatigue is the driver's fatigue sub-record.
type Fatigue struct {
	ThresholdMS int64
}

// Driver is the driver entity.
type Driver struct {
	ID             int64
	Cell           geohex.Cell
	MatchedRiderID int64
	AssignedTripID int64
	State          DriverState
	Earnings       Earnings
	Fatigue        Fatigue
}

// Timing is the trip's timestamp funnel (spec.md invariant 3).
type Timing struct {
	RequestedAtMS int64
	MatchedAtMS   int64
	HasPickupAt   bool
	PickupAtMS    int64
	HasDropoffAt  bool
	DropoffAtMS   int64
	HasCancelledAt bool
	CancelledAtMS  int64
}

// Financials is the trip's money sub-record.
type Financials struct {
	HasAgreedFare              bool
	AgreedFare                 float64
	PickupDistanceKMAtAccept   float64
}

// LiveData is data updated while a trip is in motion.
type LiveData struct {
	PickupEtaMS int64
	StepCount   int64
}

// Trip is the trip entity. It outlives its rider (despawned on completion)
// as the audit artifact (spec.md §3).
type Trip struct {
	ID         int64
	RiderID    int64
	DriverID   int64
	Pickup     geohex.Cell
	Dropoff    geohex.Cell
	Timing     Timing
	Financials Financials
	LiveData   LiveData
	State      TripState
}
