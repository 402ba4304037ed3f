// Package scheduler fires the daypart reports and the weekly roll-up on
// wall-clock triggers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ariefcatur/shop-orders/internal/config"
	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/report"
)

// Source is the read side of the order log.
type Source interface {
	ListAll(ctx context.Context) ([]orders.Order, error)
}

// Sink delivers reports. notify.Dispatcher satisfies it.
type Sink interface {
	SendText(ctx context.Context, body string)
	SendDocument(ctx context.Context, data []byte, filename, caption string)
}

type Scheduler struct {
	cron    *cron.Cron
	src     Source
	out     Sink
	loc     *time.Location
	log     *slog.Logger
	now     func() time.Time
	timeout time.Duration

	dayparts map[string]report.Daypart
	specs    map[string]string

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithJobTimeout bounds one firing, including its notification.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New registers the six jobs. A firing that is still running when its next
// trigger arrives makes that trigger skip; a panicking job is recovered and
// logged.
func New(log *slog.Logger, src Source, out Sink, sched config.Schedule, loc *time.Location, opts ...Option) (*Scheduler, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	weekday, _ := sched.Weekday()
	if loc == nil {
		loc = time.Local
	}

	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		src:      src,
		out:      out,
		loc:      loc,
		log:      log,
		now:      time.Now,
		timeout:  2 * time.Minute,
		dayparts: map[string]report.Daypart{},
		specs:    map[string]string{},
	}
	for _, o := range opts {
		o(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, d := range Dayparts(sched) {
		s.dayparts[d.Key] = d
		s.specs[d.Key] = fmt.Sprintf("0 %d * * *", d.EndHour)
	}
	s.specs[JobWeekly] = fmt.Sprintf("0 %d * * %d", sched.WeeklyHour, int(weekday))

	for _, name := range s.Jobs() {
		if _, err := s.cron.AddFunc(s.specs[name], s.fire(name)); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", name, s.specs[name], err)
		}
	}
	return s, nil
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.specs))
	for name := range s.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec returns the cron expression of job name.
func (s *Scheduler) Spec(name string) string { return s.specs[name] }

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Debug("job scheduled", "next", e.Next)
	}
	s.log.Info("scheduler started", "jobs", len(s.specs), "tz", s.loc.String())
}

// Stop halts the triggers and waits for running firings until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) fire(name string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		start := time.Now()
		if err := s.RunJob(ctx, name, s.now()); err != nil {
			s.log.Error("report job failed", "job", name, "err", err)
			return
		}
		s.log.Info("report job done", "job", name, "took", time.Since(start))
	}
}

// RunJob runs job name as if its trigger fired at now.
func (s *Scheduler) RunJob(ctx context.Context, name string, now time.Time) error {
	if name == JobWeekly {
		return s.runWeekly(ctx)
	}
	d, ok := s.dayparts[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	text, err := s.Daypart(ctx, d, now)
	if err != nil {
		return err
	}
	if text == "" {
		s.log.Info("no orders in window, nothing sent", "job", name)
		return nil
	}
	s.out.SendText(ctx, text)
	return nil
}

// Daypart renders the report of d for the window ending at or before now.
// An empty string means the window had no orders.
func (s *Scheduler) Daypart(ctx context.Context, d report.Daypart, now time.Time) (string, error) {
	all, err := s.src.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list orders: %w", err)
	}
	start, end := Window(d, now, s.loc)
	r := report.Aggregate(all, start, end, s.loc)
	if r.Empty() {
		return "", nil
	}
	return report.RenderDaypart(d, r), nil
}

// Weekly renders the roll-up of every order by ISO week.
func (s *Scheduler) Weekly(ctx context.Context) (string, error) {
	all, err := s.src.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list orders: %w", err)
	}
	return report.RenderWeekly(report.PartitionWeeks(all, s.loc)), nil
}

// Lookup returns the daypart registered under name.
func (s *Scheduler) Lookup(name string) (report.Daypart, bool) {
	d, ok := s.dayparts[name]
	return d, ok
}

func (s *Scheduler) runWeekly(ctx context.Context) error {
	text, err := s.Weekly(ctx)
	if err != nil {
		return err
	}
	s.out.SendDocument(ctx, []byte(text), report.WeeklyFilename, report.WeeklyCaption)
	return nil
}
