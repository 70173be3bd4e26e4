package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawTimeSlot
		want models.NormalizedSlot
		ok   bool
	}{
		{
			name: "end minutes round up",
			raw:  models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "14:00:00", EndTime: "15:30:00"},
			want: models.NormalizedSlot{Day: 1, StartHour: 14, EndHour: 16},
			ok:   true,
		},
		{
			name: "camel case string day",
			raw:  models.RawTimeSlot{DayOfWeekCamel: models.DayText("3"), StartTimeCamel: "09:00", EndTimeCamel: "11:00"},
			want: models.NormalizedSlot{Day: 3, StartHour: 9, EndHour: 11},
			ok:   true,
		},
		{
			name: "snake number wins over camel",
			raw:  models.RawTimeSlot{DayOfWeek: models.DayNumber(2), DayOfWeekCamel: models.DayNumber(5), StartTime: "08:00", EndTime: "09:00"},
			want: models.NormalizedSlot{Day: 2, StartHour: 8, EndHour: 9},
			ok:   true,
		},
		{
			name: "numeric day preferred over numeric string",
			raw:  models.RawTimeSlot{DayOfWeek: models.DayText("4"), DayOfWeekCamel: models.DayNumber(6), StartTime: "08:00", EndTime: "09:00"},
			want: models.NormalizedSlot{Day: 6, StartHour: 8, EndHour: 9},
			ok:   true,
		},
		{
			name: "empty snake time falls back to camel",
			raw:  models.RawTimeSlot{DayOfWeek: models.DayNumber(0), StartTime: "", StartTimeCamel: "10:00", EndTime: "12:00"},
			want: models.NormalizedSlot{Day: 0, StartHour: 10, EndHour: 12},
			ok:   true,
		},
		{
			name: "sub hour session",
			raw:  models.RawTimeSlot{DayOfWeek: models.DayNumber(6), StartTime: "21:00", EndTime: "21:45"},
			want: models.NormalizedSlot{Day: 6, StartHour: 21, EndHour: 22},
			ok:   true,
		},
		{
			name: "late evening reaches midnight",
			raw:  models.RawTimeSlot{DayOfWeek: models.DayNumber(5), StartTime: "23:00", EndTime: "23:30"},
			want: models.NormalizedSlot{Day: 5, StartHour: 23, EndHour: 24},
			ok:   true,
		},
		{name: "day out of range", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(7), StartTime: "08:00", EndTime: "09:00"}},
		{name: "negative day", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(-1), StartTime: "08:00", EndTime: "09:00"}},
		{name: "fractional day", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(1.5), StartTime: "08:00", EndTime: "09:00"}},
		{name: "non numeric day string", raw: models.RawTimeSlot{DayOfWeek: models.DayText("x"), StartTime: "08:00", EndTime: "09:00"}},
		{name: "missing day", raw: models.RawTimeSlot{StartTime: "08:00", EndTime: "09:00"}},
		{name: "missing end", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "08:00"}},
		{name: "garbage time", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "ocho", EndTime: "09:00"}},
		{name: "inverted range", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "12:00", EndTime: "10:00"}},
		{name: "zero length", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "10:00", EndTime: "10:00"}},
		{name: "past midnight", raw: models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "23:00", EndTime: "24:30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeSlot(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTimeSlotParserLogsRejections(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	metrics := NewMetricsService()
	parser := NewTimeSlotParser(zap.New(core), metrics)

	_, ok := parser.Parse(models.RawTimeSlot{DayOfWeek: models.DayNumber(9), StartTime: "08:00", EndTime: "09:00"})
	require.False(t, ok)

	entries := logs.FilterMessage("skipping availability slot").All()
	require.Len(t, entries, 1)
	assert.Equal(t, slotRejectDay, entries[0].ContextMap()["reason"])
	assert.Equal(t, uint64(1), metrics.Snapshot().RejectedSlots)

	slot, ok := parser.Parse(models.RawTimeSlot{DayOfWeek: models.DayNumber(1), StartTime: "08:00", EndTime: "09:00"})
	require.True(t, ok)
	assert.Equal(t, 8, slot.StartHour)
	assert.Equal(t, 1, logs.Len())
}

func TestSplitClockIgnoresSeconds(t *testing.T) {
	h, m, ok := splitClock("07:05:59")
	require.True(t, ok)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)

	h, m, ok = splitClock("18")
	require.True(t, ok)
	assert.Equal(t, 18, h)
	assert.Zero(t, m)

	_, _, ok = splitClock("10:75")
	assert.False(t, ok)
	_, _, ok = splitClock("1:2:3:4")
	assert.False(t, ok)
}
