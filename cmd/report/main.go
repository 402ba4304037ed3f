// Command report runs one report job once, for backfills and checks.
//
//	report -job evening [-at 2025-03-01T19:00:00+05:00] [-send]
//
// Without -send the report is printed to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/shop-orders/internal/config"
	"github.com/ariefcatur/shop-orders/internal/logx"
	"github.com/ariefcatur/shop-orders/internal/notify"
	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/scheduler"
	"github.com/ariefcatur/shop-orders/internal/store"
)

func main() {
	_ = godotenv.Load()

	job := flag.String("job", "", "job name: "+strings.Join(jobNames(), ", "))
	at := flag.String("at", "", "RFC3339 instant the trigger fires at (default now)")
	send := flag.Bool("send", false, "deliver to the group chat instead of printing")
	flag.Parse()

	if err := run(*job, *at, *send); err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
}

func jobNames() []string {
	return []string{
		scheduler.JobMorning, scheduler.JobMidmorning, scheduler.JobAfternoon,
		scheduler.JobEvening, scheduler.JobNight, scheduler.JobWeekly,
	}
}

func run(job, at string, send bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logx.NewWriter(os.Stderr, cfg.LogLevel, "text")
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	now := time.Now().In(loc)
	if at != "" {
		if now, err = time.Parse(time.RFC3339, at); err != nil {
			return fmt.Errorf("-at: %w", err)
		}
		now = now.In(loc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, closeStore, err := store.Open(ctx, cfg.DataDir, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer closeStore()

	var channel notify.Channel = notify.LogChannel{Log: log}
	if send {
		if cfg.BotToken == "" {
			return fmt.Errorf("-send needs BOT_TOKEN")
		}
		channel = notify.NewTelegramChannel(cfg.BotToken, cfg.TelegramAPI, cfg.NotifyTimeout)
	}
	out := notify.NewDispatcher(channel, cfg.GroupChatID, log, notify.WithTimeout(cfg.NotifyTimeout))

	sched, err := scheduler.New(log, orders.NewLog(backend), out, cfg.Schedule, loc)
	if err != nil {
		return err
	}

	if send {
		return sched.RunJob(ctx, job, now)
	}
	return printReport(ctx, os.Stdout, sched, job, now, log)
}

func printReport(ctx context.Context, w io.Writer, sched *scheduler.Scheduler, job string, now time.Time, log *slog.Logger) error {
	var text string
	var err error
	if job == scheduler.JobWeekly {
		text, err = sched.Weekly(ctx)
	} else {
		d, ok := sched.Lookup(job)
		if !ok {
			return fmt.Errorf("unknown job %q (want one of %s)", job, strings.Join(jobNames(), ", "))
		}
		text, err = sched.Daypart(ctx, d, now)
	}
	if err != nil {
		return err
	}
	if text == "" {
		log.Info("no orders in window", "job", job, "at", now)
		return nil
	}
	_, err = fmt.Fprint(w, text)
	return err
}
