package service

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

// Reasons a raw slot is rejected; used as log field and metric label.
const (
	slotRejectDay       = "invalid_day"
	slotRejectMissing   = "missing_time"
	slotRejectMalformed = "malformed_time"
	slotRejectRange     = "empty_range"
)

// TimeSlotParser converts untrusted availability records into normalized slots.
// Rejected records are logged and counted, never returned as errors.
type TimeSlotParser struct {
	logger  *zap.Logger
	metrics *MetricsService
}

// NewTimeSlotParser builds a parser.
func NewTimeSlotParser(logger *zap.Logger, metrics *MetricsService) *TimeSlotParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotParser{logger: logger, metrics: metrics}
}

// Parse returns the normalized slot and true, or false when raw is unusable.
func (p *TimeSlotParser) Parse(raw models.RawTimeSlot) (models.NormalizedSlot, bool) {
	slot, reason := parseTimeSlot(raw)
	if reason != "" {
		p.logger.Warn("skipping availability slot",
			zap.String("reason", reason),
			zap.Any("slot", raw),
		)
		p.metrics.ObserveRejectedSlot(reason)
		return models.NormalizedSlot{}, false
	}
	return slot, true
}

// ParseTimeSlot is Parse without diagnostics.
func ParseTimeSlot(raw models.RawTimeSlot) (models.NormalizedSlot, bool) {
	slot, reason := parseTimeSlot(raw)
	return slot, reason == ""
}

func parseTimeSlot(raw models.RawTimeSlot) (models.NormalizedSlot, string) {
	day, ok := resolveDay(raw.DayOfWeek, raw.DayOfWeekCamel)
	if !ok {
		return models.NormalizedSlot{}, slotRejectDay
	}

	start := resolveField(raw.StartTime, raw.StartTimeCamel)
	end := resolveField(raw.EndTime, raw.EndTimeCamel)
	if start == "" || end == "" {
		return models.NormalizedSlot{}, slotRejectMissing
	}

	startHour, _, ok := splitClock(start)
	if !ok || startHour > 23 {
		return models.NormalizedSlot{}, slotRejectMalformed
	}
	endHour, endMinutes, ok := splitClock(end)
	if !ok {
		return models.NormalizedSlot{}, slotRejectMalformed
	}

	endHour = ceilHour(endHour, endMinutes)
	if endHour > 24 {
		return models.NormalizedSlot{}, slotRejectMalformed
	}
	if startHour >= endHour {
		return models.NormalizedSlot{}, slotRejectRange
	}

	return models.NormalizedSlot{Day: day, StartHour: startHour, EndHour: endHour}, ""
}

// ceilHour rounds an end time with leftover minutes up to the next whole hour, so a
// session ending at 14:30 still occupies the 14-15 bucket.
func ceilHour(hour, minutes int) int {
	if minutes > 0 {
		return hour + 1
	}
	return hour
}

// resolveField picks the first non-empty value in preference order.
func resolveField(candidates ...models.LooseString) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(string(c)); v != "" {
			return v
		}
	}
	return ""
}

// resolveDay prefers numeric values over numeric strings, and within each kind the
// earlier candidate wins. The chosen value must be an integer in [0,6].
func resolveDay(candidates ...models.RawDay) (int, bool) {
	for _, c := range candidates {
		if n, ok := c.Number(); ok {
			return dayIndex(n)
		}
	}
	for _, c := range candidates {
		if s, ok := c.Text(); ok {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return 0, false
			}
			return dayIndex(float64(n))
		}
	}
	return 0, false
}

func dayIndex(n float64) (int, bool) {
	idx := int(n)
	if float64(idx) != n || idx < 0 || idx > 6 {
		return 0, false
	}
	return idx, true
}

// splitClock reads "HH", "HH:MM" or "HH:MM:SS"; seconds are ignored.
func splitClock(value string) (hour, minutes int, ok bool) {
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, 0, false
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 {
		return 0, 0, false
	}
	if len(parts) == 1 || strings.TrimSpace(parts[1]) == "" {
		return hour, 0, true
	}

	minutes, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, 0, false
	}
	return hour, minutes, true
}
