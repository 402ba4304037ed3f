package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

const (
	WeeklyFilename = "all_weeks_stats.txt"
	WeeklyCaption  = "Barcha haftalar statistikasi"

	noOrdersAtAll = "Buyurtmalar yo'q."
	noOrdersWeek  = "Hafta davomida buyurtmalar yo'q."
	sectionRule   = "=============================="
)

type Week struct {
	Year, Week int
	Report     WindowReport
}

// PartitionWeeks splits every order by ISO (year, week) in loc. Weeks are
// returned in ascending order from the first week with an order to the last;
// weeks in between without orders are present with an empty report.
func PartitionWeeks(all []orders.Order, loc *time.Location) []Week {
	var first, last time.Time
	for _, o := range all {
		at, err := o.CreatedTime(loc)
		if err != nil {
			continue
		}
		if first.IsZero() || at.Before(first) {
			first = at
		}
		if last.IsZero() || at.After(last) {
			last = at
		}
	}
	if first.IsZero() {
		return nil
	}

	var weeks []Week
	end := weekStart(last, loc)
	for monday := weekStart(first, loc); !monday.After(end); monday = monday.AddDate(0, 0, 7) {
		year, week := monday.ISOWeek()
		weeks = append(weeks, Week{
			Year:   year,
			Week:   week,
			Report: Aggregate(all, monday, monday.AddDate(0, 0, 7), loc),
		})
	}
	return weeks
}

// weekStart is 00:00 on the Monday of t's ISO week, in loc.
func weekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
}

// RenderWeekly renders the roll-up document body.
func RenderWeekly(weeks []Week) string {
	if len(weeks) == 0 {
		return noOrdersAtAll + "\n"
	}
	var b strings.Builder
	for _, w := range weeks {
		fmt.Fprintf(&b, "\n%s\n", sectionRule)
		fmt.Fprintf(&b, "📅 %d-yil, %d-hafta statistikasi:\n\n", w.Year, w.Week)
		if w.Report.Empty() {
			b.WriteString(noOrdersWeek + "\n")
			continue
		}
		writeBody(&b, w.Report)
	}
	return b.String()
}
