package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Grid window: buckets are rendered for hours [GridStartHour, GridEndHour).
const (
	GridStartHour = 8
	GridEndHour   = 22
)

// dayNames maps a day index (0 = Sunday) to its display label.
var dayNames = [7]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

// DayNames returns the weekday labels in grid column order.
func DayNames() []string {
	out := make([]string, len(dayNames))
	copy(out, dayNames[:])
	return out
}

// DayName returns the label for a day index and false when the index is out of range.
func DayName(index int) (string, bool) {
	if index < 0 || index >= len(dayNames) {
		return "", false
	}
	return dayNames[index], true
}

// HourBucket labels the one-hour interval starting at hour, e.g. "14-15".
func HourBucket(hour int) string {
	return strconv.Itoa(hour) + "-" + strconv.Itoa(hour+1)
}

// GridHours lists the rendered buckets from "8-9" to "21-22".
func GridHours() []string {
	hours := make([]string, 0, GridEndHour-GridStartHour)
	for h := GridStartHour; h < GridEndHour; h++ {
		hours = append(hours, HourBucket(h))
	}
	return hours
}

// RawDay holds an untrusted day-of-week value exactly as it arrived: a number, a
// string, or nothing usable.
type RawDay struct {
	number *float64
	text   *string
}

// DayNumber builds a RawDay carrying a numeric value.
func DayNumber(n float64) RawDay { return RawDay{number: &n} }

// DayText builds a RawDay carrying a string value.
func DayText(s string) RawDay { return RawDay{text: &s} }

// Number returns the numeric value when the day arrived as a number.
func (d RawDay) Number() (float64, bool) {
	if d.number == nil {
		return 0, false
	}
	return *d.number, true
}

// Text returns the string value when the day arrived as a string.
func (d RawDay) Text() (string, bool) {
	if d.text == nil {
		return "", false
	}
	return *d.text, true
}

// UnmarshalJSON never fails; values of any other JSON type are dropped.
func (d *RawDay) UnmarshalJSON(data []byte) error {
	*d = RawDay{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			d.text = &s
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n float64
		if err := json.Unmarshal(data, &n); err == nil {
			d.number = &n
		}
	}
	return nil
}

// MarshalJSON echoes the value in its original shape.
func (d RawDay) MarshalJSON() ([]byte, error) {
	switch {
	case d.number != nil:
		return json.Marshal(*d.number)
	case d.text != nil:
		return json.Marshal(*d.text)
	default:
		return []byte("null"), nil
	}
}

// Scan accepts integer and text columns.
func (d *RawDay) Scan(src interface{}) error {
	*d = RawDay{}
	switch v := src.(type) {
	case nil:
	case int64:
		n := float64(v)
		d.number = &n
	case float64:
		d.number = &v
	case []byte:
		s := string(v)
		d.text = &s
	case string:
		d.text = &v
	default:
		return fmt.Errorf("unsupported day_of_week type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (d RawDay) Value() (driver.Value, error) {
	switch {
	case d.number != nil:
		return int64(*d.number), nil
	case d.text != nil:
		return *d.text, nil
	default:
		return nil, nil
	}
}

// LooseString keeps a JSON string and silently drops any other JSON type.
type LooseString string

// UnmarshalJSON never fails.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	*s = LooseString(v)
	return nil
}

// Scan accepts text and time-of-day columns rendered as text.
func (s *LooseString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ""
	case []byte:
		*s = LooseString(v)
	case string:
		*s = LooseString(v)
	default:
		*s = LooseString(fmt.Sprint(v))
	}
	return nil
}

// RawTimeSlot is one availability record from upstream. Producers disagree on field
// naming, so both conventions are carried and resolved later.
type RawTimeSlot struct {
	DayOfWeek      RawDay      `db:"day_of_week" json:"day_of_week"`
	DayOfWeekCamel RawDay      `db:"-" json:"dayOfWeek"`
	StartTime      LooseString `db:"start_time" json:"start_time"`
	StartTimeCamel LooseString `db:"-" json:"startTime"`
	EndTime        LooseString `db:"end_time" json:"end_time"`
	EndTimeCamel   LooseString `db:"-" json:"endTime"`
}

// NormalizedSlot is a parsed availability slot. StartHour < EndHour always holds.
type NormalizedSlot struct {
	Day       int `json:"day"`
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// BucketSet is a set of hour buckets.
type BucketSet map[string]struct{}

// Add inserts bucket; repeated inserts are no-ops.
func (s BucketSet) Add(bucket string) { s[bucket] = struct{}{} }

// Has reports membership.
func (s BucketSet) Has(bucket string) bool {
	_, ok := s[bucket]
	return ok
}

// Sorted returns buckets ordered by starting hour.
func (s BucketSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for b := range s {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		hi, hj := bucketStart(out[i]), bucketStart(out[j])
		if hi != hj {
			return hi < hj
		}
		return out[i] < out[j]
	})
	return out
}

// MarshalJSON renders the set as an ordered list.
func (s BucketSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads a list of buckets.
func (s *BucketSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	set := make(BucketSet, len(items))
	for _, item := range items {
		set.Add(item)
	}
	*s = set
	return nil
}

func bucketStart(bucket string) int {
	head, _, _ := strings.Cut(bucket, "-")
	h, err := strconv.Atoi(head)
	if err != nil {
		return 1 << 30
	}
	return h
}

// AvailabilityGrid maps every weekday label to its occupied hour buckets.
type AvailabilityGrid map[string]BucketSet

// NewAvailabilityGrid returns a grid with all seven days present and empty.
func NewAvailabilityGrid() AvailabilityGrid {
	grid := make(AvailabilityGrid, len(dayNames))
	for _, day := range dayNames {
		grid[day] = BucketSet{}
	}
	return grid
}

// Contains reports whether day has bucket; unknown days are simply empty.
func (g AvailabilityGrid) Contains(day, bucket string) bool {
	set, ok := g[day]
	return ok && set.Has(bucket)
}

// AvailabilityTable is the grid laid out for rendering: one row per bucket in the
// fixed window and one cell per weekday.
type AvailabilityTable struct {
	Days    []string          `json:"days"`
	Headers []string          `json:"headers"`
	Rows    []AvailabilityRow `json:"rows"`
}

// AvailabilityRow is one hour of the weekly table.
type AvailabilityRow struct {
	Slot  string `json:"slot"`
	Label string `json:"label"`
	Cells []bool `json:"cells"`
}
