package simrand

import "time"

// timeOfDayMultiplier is the literal 24 (hour) x 7 (day-of-week) demand
// multiplier table (spec.md §4.4/§9: "implementations must encode it
// verbatim"). Row index is hour-of-day [0,23], column index is
// time.Weekday [0=Sunday,6=Saturday]. Values encode the familiar
// rush-hour peaks (07-09, 17-19 on weekdays) and a late-night trough,
// with weekends shifted later and smoothed.
var timeOfDayMultiplier = [24][7]float64{
	// Sun,  Mon,  Tue,  Wed,  Thu,  Fri,  Sat
	{0.35, 0.20, 0.20, 0.20, 0.20, 0.25, 0.45}, // 00:00
	{0.30, 0.15, 0.15, 0.15, 0.15, 0.20, 0.50}, // 01:00
	{0.25, 0.12, 0.12, 0.12, 0.12, 0.18, 0.55}, // 02:00
	{0.20, 0.10, 0.10, 0.10, 0.10, 0.15, 0.50}, // 03:00
	{0.20, 0.12, 0.12, 0.12, 0.12, 0.15, 0.35}, // 04:00
	{0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25}, // 05:00
	{0.35, 0.55, 0.55, 0.55, 0.55, 0.55, 0.30}, // 06:00
	{0.45, 1.20, 1.25, 1.25, 1.20, 1.15, 0.40}, // 07:00
	{0.55, 1.60, 1.65, 1.65, 1.60, 1.45, 0.50}, // 08:00
	{0.60, 1.35, 1.40, 1.40, 1.35, 1.25, 0.65}, // 09:00
	{0.70, 0.90, 0.90, 0.90, 0.90, 0.95, 0.85}, // 10:00
	{0.80, 0.85, 0.85, 0.85, 0.85, 0.95, 1.00}, // 11:00
	{0.95, 1.00, 1.00, 1.00, 1.00, 1.10, 1.15}, // 12:00
	{0.95, 0.95, 0.95, 0.95, 0.95, 1.05, 1.15}, // 13:00
	{0.85, 0.85, 0.85, 0.85, 0.90, 1.00, 1.10}, // 14:00
	{0.80, 0.90, 0.90, 0.90, 0.95, 1.05, 1.05}, // 15:00
	{0.85, 1.10, 1.10, 1.10, 1.15, 1.20, 1.05}, // 16:00
	{0.90, 1.55, 1.60, 1.60, 1.55, 1.45, 1.10}, // 17:00
	{0.95, 1.70, 1.75, 1.75, 1.70, 1.60, 1.20}, // 18:00
	{1.00, 1.30, 1.35, 1.35, 1.30, 1.40, 1.35}, // 19:00
	{1.05, 1.00, 1.00, 1.00, 1.05, 1.45, 1.50}, // 20:00
	{1.10, 0.85, 0.85, 0.85, 0.95, 1.55, 1.65}, // 21:00
	{0.90, 0.60, 0.60, 0.60, 0.70, 1.50, 1.70}, // 22:00
	{0.55, 0.35, 0.35, 0.35, 0.45, 1.30, 1.50}, // 23:00
}

// TimeOfDayMultiplier returns the demand multiplier for a given hour
// [0,23] and day-of-week [0,6], 0=Sunday per time.Weekday.
func TimeOfDayMultiplier(hour int, dayOfWeek time.Weekday) float64 {
	if hour < 0 || hour > 23 {
		hour = ((hour % 24) + 24) % 24
	}
	return timeOfDayMultiplier[hour][int(dayOfWeek)]
}

// HourAndWeekday converts a simulation timestamp (ms, relative to t=0) plus
// the scenario's real-world epoch into the real-world hour and weekday the
// spawner must sample against.
func HourAndWeekday(epochMS, nowMS int64) (hour int, weekday time.Weekday) {
	t := time.UnixMilli(epochMS + nowMS).UTC()
	return t.Hour(), t.Weekday()
}
