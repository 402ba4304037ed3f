package scheduler

import (
	"time"

	"github.com/ariefcatur/shop-orders/internal/config"
	"github.com/ariefcatur/shop-orders/internal/report"
)

const (
	JobMorning    = "morning"
	JobMidmorning = "midmorning"
	JobAfternoon  = "afternoon"
	JobEvening    = "evening"
	JobNight      = "night"
	JobWeekly     = "weekly"
)

// Dayparts lists the five daily windows in the order they follow each other.
// Each starts where the previous one ends; night wraps around midnight.
func Dayparts(s config.Schedule) []report.Daypart {
	parts := []report.Daypart{
		{Key: JobMorning, Title: "Ertalab", EndHour: s.MorningEndHour},
		{Key: JobMidmorning, Title: "Kun o'rtasi", EndHour: s.MidmorningEndHour},
		{Key: JobAfternoon, Title: "Tushdan keyin", EndHour: s.AfternoonEndHour},
		{Key: JobEvening, Title: "Kechqurun", EndHour: s.EveningEndHour},
		{Key: JobNight, Title: "Tungi", EndHour: s.NightEndHour},
	}
	for i := range parts {
		prev := parts[(i+len(parts)-1)%len(parts)]
		parts[i].StartHour = prev.EndHour
	}
	return parts
}

// Window returns the most recent [start, end) of d that ended at or before now.
func Window(d report.Daypart, now time.Time, loc *time.Location) (start, end time.Time) {
	now = now.In(loc)
	end = time.Date(now.Year(), now.Month(), now.Day(), d.EndHour, 0, 0, 0, loc)
	if end.After(now) {
		end = end.AddDate(0, 0, -1)
	}
	start = time.Date(end.Year(), end.Month(), end.Day(), d.StartHour, 0, 0, 0, loc)
	if !start.Before(end) {
		start = start.AddDate(0, 0, -1)
	}
	return start, end
}
