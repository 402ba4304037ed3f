package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Schedule holds the report trigger options. Each daypart end hour is also
// the start of the following daypart.
type Schedule struct {
	MorningEndHour    int    `yaml:"morning_end_hour"`
	MidmorningEndHour int    `yaml:"midmorning_end_hour"`
	AfternoonEndHour  int    `yaml:"afternoon_end_hour"`
	EveningEndHour    int    `yaml:"evening_end_hour"`
	NightEndHour      int    `yaml:"night_end_hour"`
	WeeklyDay         string `yaml:"weekly_day"`
	WeeklyHour        int    `yaml:"weekly_hour"`
}

func DefaultSchedule() Schedule {
	return Schedule{
		MorningEndHour:    10,
		MidmorningEndHour: 13,
		AfternoonEndHour:  16,
		EveningEndHour:    19,
		NightEndHour:      7,
		WeeklyDay:         "sunday",
		WeeklyHour:        22,
	}
}

// LoadSchedule reads a YAML file; options it leaves out keep their defaults.
func LoadSchedule(path string) (Schedule, error) {
	s := DefaultSchedule()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return s, fmt.Errorf("failed to read schedule file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse schedule file: %w", err)
	}
	return s, nil
}

func (s *Schedule) applyEnv() error {
	hours := []struct {
		key string
		dst *int
	}{
		{"SCHEDULE_MORNING_END_HOUR", &s.MorningEndHour},
		{"SCHEDULE_MIDMORNING_END_HOUR", &s.MidmorningEndHour},
		{"SCHEDULE_AFTERNOON_END_HOUR", &s.AfternoonEndHour},
		{"SCHEDULE_EVENING_END_HOUR", &s.EveningEndHour},
		{"SCHEDULE_NIGHT_END_HOUR", &s.NightEndHour},
		{"SCHEDULE_WEEKLY_HOUR", &s.WeeklyHour},
	}
	for _, h := range hours {
		v := os.Getenv(h.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", h.key, err)
		}
		*h.dst = n
	}
	if v := os.Getenv("SCHEDULE_WEEKLY_DAY"); v != "" {
		s.WeeklyDay = v
	}
	return nil
}

func (s Schedule) Validate() error {
	seen := map[int]string{}
	for name, h := range map[string]int{
		"morning_end_hour":    s.MorningEndHour,
		"midmorning_end_hour": s.MidmorningEndHour,
		"afternoon_end_hour":  s.AfternoonEndHour,
		"evening_end_hour":    s.EveningEndHour,
		"night_end_hour":      s.NightEndHour,
	} {
		if h < 0 || h > 23 {
			return fmt.Errorf("schedule: %s=%d out of range 0..23", name, h)
		}
		if other, dup := seen[h]; dup {
			return fmt.Errorf("schedule: %s and %s share hour %d", name, other, h)
		}
		seen[h] = name
	}
	if s.WeeklyHour < 0 || s.WeeklyHour > 23 {
		return fmt.Errorf("schedule: weekly_hour=%d out of range 0..23", s.WeeklyHour)
	}
	if _, err := s.Weekday(); err != nil {
		return err
	}
	return nil
}

// Weekday parses WeeklyDay as a full or three-letter English day name.
func (s Schedule) Weekday() (time.Weekday, error) {
	d := strings.ToLower(strings.TrimSpace(s.WeeklyDay))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if d == name || d == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("schedule: unknown weekly_day %q", s.WeeklyDay)
}
