package telemetry

import (
	"encoding/csv"
	"io"
	"strconv"
)

var tripCSVHeader = []string{
	"trip_id", "rider_id", "driver_id",
	"requested_at_ms", "matched_at_ms", "pickup_at_ms", "dropoff_at_ms",
	"fare", "surge_impact", "pickup_distance_km_at_accept",
}

// WriteTripsCSV writes records as a CSV document with a header row, in the
// field order of CompletedTripRecord (spec.md §6).
func WriteTripsCSV(w io.Writer, records []CompletedTripRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tripCSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.TripID, 10),
			strconv.FormatInt(r.RiderID, 10),
			strconv.FormatInt(r.DriverID, 10),
			strconv.FormatInt(r.RequestedAtMS, 10),
			strconv.FormatInt(r.MatchedAtMS, 10),
			strconv.FormatInt(r.PickupAtMS, 10),
			strconv.FormatInt(r.DropoffAtMS, 10),
			strconv.FormatFloat(r.Fare, 'f', -1, 64),
			strconv.FormatFloat(r.SurgeImpact, 'f', -1, 64),
			strconv.FormatFloat(r.PickupDistanceKMAtAccept, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
