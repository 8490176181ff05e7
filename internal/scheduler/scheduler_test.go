package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
		wantErr      bool
	}{
		{"08:00", 8, 0, false},
		{"23:59", 23, 59, false},
		{"0:5", 0, 5, false},
		{"24:00", 0, 0, true},
		{"08:60", 0, 0, true},
		{"eight", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := parseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseClock(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (h != tt.hour || m != tt.minute) {
			t.Errorf("parseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
		}
	}
}

func TestNextDaily(t *testing.T) {
	// Wednesday 2026-08-26 07:30 UTC.
	now := time.Date(2026, 8, 26, 7, 30, 0, 0, time.UTC)

	next := nextDaily(now, 8, 0)
	if want := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("before slot: next = %v, want %v", next, want)
	}

	next = nextDaily(now, 7, 0)
	if want := time.Date(2026, 8, 27, 7, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("after slot: next = %v, want %v", next, want)
	}

	// Exactly at the slot rolls to tomorrow.
	next = nextDaily(time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC), 8, 0)
	if next.Day() != 27 {
		t.Errorf("at slot: next = %v", next)
	}
}

func TestNextWeekly(t *testing.T) {
	// Wednesday 2026-08-26 10:00 UTC.
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	next := nextWeekly(now, time.Monday, 8, 30)
	if want := time.Date(2026, 8, 31, 8, 30, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("next monday = %v, want %v", next, want)
	}

	// Same day, slot still ahead.
	next = nextWeekly(now, time.Wednesday, 11, 0)
	if want := time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("same day ahead = %v, want %v", next, want)
	}

	// Same day, slot passed: a full week out.
	next = nextWeekly(now, time.Wednesday, 8, 30)
	if want := time.Date(2026, 9, 2, 8, 30, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("same day passed = %v, want %v", next, want)
	}
}

func TestParseWeekday(t *testing.T) {
	if parseWeekday("friday") != time.Friday {
		t.Error("friday not parsed")
	}
	if parseWeekday("SUNDAY") != time.Sunday {
		t.Error("case-insensitive parse failed")
	}
	if parseWeekday("someday") != time.Monday {
		t.Error("unknown day should default to monday")
	}
}

func TestSourceJobsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.GitHub.Enabled = true
	cfg.Sources.GitHub.IntervalHours = 6
	cfg.Sources.HuggingFace.Enabled = false
	cfg.Sources.HackerNews.Enabled = false
	cfg.Sources.Reddit.Enabled = false
	cfg.Sources.Arxiv.Enabled = false
	cfg.Sources.Leaderboard.Enabled = false
	cfg.Sources.Websites.Enabled = true // but no blogs configured
	cfg.Sources.Twitter.Enabled = true  // but no accounts configured

	s := &Scheduler{cfg: cfg, now: time.Now}
	jobs := s.sourceJobs()
	if len(jobs) != 1 {
		names := make([]string, 0, len(jobs))
		for _, j := range jobs {
			names = append(names, j.name)
		}
		t.Fatalf("jobs = %v", names)
	}
	if jobs[0].name != "github" || jobs[0].interval != 6*time.Hour {
		t.Errorf("job = %+v", jobs[0])
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Output.DataDir = t.TempDir()

	db, err := database.Open(filepath.Join(cfg.Output.DataDir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	s := New(cfg, db)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
