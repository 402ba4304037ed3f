package report

import (
	"fmt"
	"strings"
)

// Daypart names one reporting window of the day. The window ends at EndHour
// and starts at StartHour, on the previous day when StartHour > EndHour.
type Daypart struct {
	Key       string
	Title     string
	StartHour int
	EndHour   int
}

func (d Daypart) Span() string {
	return fmt.Sprintf("%02d:00-%02d:00", d.StartHour, d.EndHour)
}

// RenderDaypart returns the chat text for a non-empty window report.
func RenderDaypart(d Daypart, r WindowReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s %s oralig'idagi buyurtmalar:\n\n", d.Title, d.Span())
	writeBody(&b, r)
	return b.String()
}
