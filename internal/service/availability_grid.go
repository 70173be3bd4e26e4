package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

// AvailabilityGridBuilder folds raw availability into the weekly presence grid.
type AvailabilityGridBuilder struct {
	parser *TimeSlotParser
	logger *zap.Logger
}

// NewAvailabilityGridBuilder constructs the builder.
func NewAvailabilityGridBuilder(logger *zap.Logger, metrics *MetricsService) *AvailabilityGridBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityGridBuilder{parser: NewTimeSlotParser(logger, metrics), logger: logger}
}

// Build returns a grid with all seven days present. Unusable slots are skipped and
// the rest of the batch is still applied.
func (b *AvailabilityGridBuilder) Build(raw []models.RawTimeSlot) models.AvailabilityGrid {
	if len(raw) == 0 {
		b.logger.Debug("no availability slots to normalize")
	}
	return foldSlots(raw, b.parser.Parse)
}

// NormalizeAvailability is Build without diagnostics.
func NormalizeAvailability(raw []models.RawTimeSlot) models.AvailabilityGrid {
	return foldSlots(raw, ParseTimeSlot)
}

func foldSlots(raw []models.RawTimeSlot, parse func(models.RawTimeSlot) (models.NormalizedSlot, bool)) models.AvailabilityGrid {
	grid := models.NewAvailabilityGrid()
	for _, r := range raw {
		slot, ok := parse(r)
		if !ok {
			continue
		}
		day, _ := models.DayName(slot.Day)
		for h := slot.StartHour; h < slot.EndHour; h++ {
			grid[day].Add(models.HourBucket(h))
		}
	}
	return grid
}

// RenderAvailability lays the grid out over the fixed [8,22) window in weekday order.
func RenderAvailability(grid models.AvailabilityGrid) models.AvailabilityTable {
	days := models.DayNames()
	headers := make([]string, len(days))
	for i, day := range days {
		headers[i] = dayAbbreviation(day)
	}

	hours := models.GridHours()
	rows := make([]models.AvailabilityRow, 0, len(hours))
	for _, slot := range hours {
		cells := make([]bool, len(days))
		for i, day := range days {
			cells[i] = grid.Contains(day, slot)
		}
		rows = append(rows, models.AvailabilityRow{Slot: slot, Label: slot + "h", Cells: cells})
	}

	return models.AvailabilityTable{Days: days, Headers: headers, Rows: rows}
}

func dayAbbreviation(day string) string {
	r := []rune(day)
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}
