package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/shop-orders/internal/config"
	"github.com/ariefcatur/shop-orders/internal/logx"
	"github.com/ariefcatur/shop-orders/internal/notify"
	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/scheduler"
	"github.com/ariefcatur/shop-orders/internal/store"
)

func newScheduler(t *testing.T, placed time.Time) *scheduler.Scheduler {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	l := orders.NewLog(fs, orders.WithClock(func() time.Time { return placed }))
	p := 5000.0
	_, err = l.Append(context.Background(), orders.Order{
		Customer: orders.CustomerInfo{Name: "Ali"},
		Items:    []orders.OrderItem{{Name: "Olma", Quantity: 2, Price: &p}},
	})
	require.NoError(t, err)

	out := notify.NewDispatcher(notify.LogChannel{Log: logx.Discard()}, 1, logx.Discard())
	s, err := scheduler.New(logx.Discard(), l, out, config.DefaultSchedule(), time.UTC)
	require.NoError(t, err)
	return s
}

func TestPrintReport_Daypart(t *testing.T) {
	s := newScheduler(t, time.Date(2025, 3, 1, 17, 30, 0, 0, time.UTC))
	var buf bytes.Buffer

	err := printReport(context.Background(), &buf, s, scheduler.JobEvening, time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC), logx.Discard())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Kechqurun 16:00-19:00")
	assert.Contains(t, buf.String(), "Olma — 2 dona, 10000 so'm")

	buf.Reset()
	err = printReport(context.Background(), &buf, s, scheduler.JobMorning, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), logx.Discard())
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "empty window prints nothing")
}

func TestPrintReport_Weekly(t *testing.T) {
	s := newScheduler(t, time.Date(2025, 3, 1, 17, 30, 0, 0, time.UTC))
	var buf bytes.Buffer

	require.NoError(t, printReport(context.Background(), &buf, s, scheduler.JobWeekly, time.Now(), logx.Discard()))
	assert.Contains(t, buf.String(), "2025-yil, 9-hafta statistikasi")
}

func TestPrintReport_UnknownJob(t *testing.T) {
	s := newScheduler(t, time.Now())
	err := printReport(context.Background(), &bytes.Buffer{}, s, "lunch", time.Now(), logx.Discard())
	assert.ErrorContains(t, err, `unknown job "lunch"`)
}
