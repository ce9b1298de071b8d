package simulation

import (
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/validation"
)

// ZoneReport is the result of simulating one zone for one day.
type ZoneReport struct {
	ZoneID     string                                         `json:"zone_id"`
	Profile    string                                         `json:"profile"`
	ProfileID  string                                         `json:"profile_id"`
	Stats      map[greenhouse.SensorKind]greenhouse.KindStats `json:"stats"`
	Alerts     []validation.Outcome                           `json:"alerts"`
	Warnings   int                                            `json:"warnings"`
	Readings   int                                            `json:"readings"`
	Controller []greenhouse.Command                           `json:"controller"`
	Forecast   []float64                                      `json:"forecast"`
}

// Summary aggregates zone reports.
type Summary struct {
	TotalAlerts       int     `json:"total_alerts"`
	ZonesOK           int     `json:"zones_ok"`
	ZonesAlert        int     `json:"zones_alert"`
	Readings          int     `json:"readings"`
	Warnings          int     `json:"warnings"`
	OutOfRangePercent float64 `json:"out_of_range_percent"`
	Commands          int     `json:"commands_count"`
}

// DayReport is the result of SimulateDay.
type DayReport struct {
	Date    string                `json:"date"`
	Zones   map[string]ZoneReport `json:"zones"`
	Summary Summary               `json:"summary"`
}

// WeekReport is the result of SimulateWeek.
type WeekReport struct {
	PerDay  []DayReport `json:"per_day"`
	Summary Summary     `json:"summary"`
}

// summarize folds zone reports. Iteration order over the map does not
// affect the result.
func summarize(zones map[string]ZoneReport) Summary {
	var s Summary
	for _, z := range zones {
		s.TotalAlerts += len(z.Alerts)
		if len(z.Alerts) == 0 {
			s.ZonesOK++
		} else {
			s.ZonesAlert++
		}
		s.Readings += z.Readings
		s.Warnings += z.Warnings
		s.Commands += len(z.Controller)
	}
	s.OutOfRangePercent = outOfRangePercent(s.Warnings, s.Readings)
	return s
}

// add sums two summaries.
func (s Summary) add(o Summary) Summary {
	out := Summary{
		TotalAlerts: s.TotalAlerts + o.TotalAlerts,
		ZonesOK:     s.ZonesOK + o.ZonesOK,
		ZonesAlert:  s.ZonesAlert + o.ZonesAlert,
		Readings:    s.Readings + o.Readings,
		Warnings:    s.Warnings + o.Warnings,
		Commands:    s.Commands + o.Commands,
	}
	out.OutOfRangePercent = outOfRangePercent(out.Warnings, out.Readings)
	return out
}

func outOfRangePercent(warnings, readings int) float64 {
	if readings == 0 {
		return 0
	}
	return round2(100 * float64(warnings) / float64(readings))
}
