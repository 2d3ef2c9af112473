package telemetry

import (
	"bytes"
	"encoding/csv"
	"testing"
)

func TestWriteTripsCSVHeaderAndRowCount(t *testing.T) {
	records := []CompletedTripRecord{
		{TripID: 1, RiderID: 2, DriverID: 3, Fare: 12.5, SurgeImpact: 1.5},
		{TripID: 4, RiderID: 5, DriverID: 6, Fare: 20, SurgeImpact: 0},
	}
	var buf bytes.Buffer
	if err := WriteTripsCSV(&buf, records); err != nil {
		t.Fatalf("WriteTripsCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 { // header + 2 records
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[0][0] != "trip_id" {
		t.Fatalf("header[0] = %q, want trip_id", rows[0][0])
	}
	if rows[1][0] != "1" || rows[1][7] != "12.5" {
		t.Fatalf("row 1 = %v, want trip_id=1 fare=12.5", rows[1])
	}
}

func TestWriteTripsCSVEmptyRecordsWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTripsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteTripsCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 (header only)", len(rows))
	}
}
