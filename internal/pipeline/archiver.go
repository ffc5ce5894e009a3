package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// Archiver snapshots synced wallets to cold storage on a cron schedule.
type Archiver struct {
	blob          domain.Archiver
	wallets       []string
	retentionDays int
	logger        *slog.Logger
}

// NewArchiver creates an Archiver for the given wallets.
func NewArchiver(blob domain.Archiver, wallets []string, retentionDays int, logger *slog.Logger) *Archiver {
	return &Archiver{
		blob:          blob,
		wallets:       wallets,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run archives, for every wallet, the trades older than the retention
// window. A failing wallet does not stop the others.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.retentionDays)
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("wallets", len(a.wallets)),
	)

	var errs []error
	var total int64
	for _, w := range a.wallets {
		n, err := a.blob.ArchiveWallet(ctx, w, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, fmt.Errorf("archive %s: %w", w, err))
			continue
		}
		total += n
	}

	a.logger.InfoContext(ctx, "archive run complete",
		slog.Int64("trades_archived", total),
		slog.Int("failed_wallets", len(errs)),
	)
	return errors.Join(errs...)
}

// RunCron runs the archiver on a five-field cron schedule until ctx is
// cancelled. "0 3 * * *" runs daily at 03:00 UTC.
func (a *Archiver) RunCron(ctx context.Context, cronExpr string) error {
	sched, err := parseCron(cronExpr)
	if err != nil {
		return fmt.Errorf("parsing cron expression %q: %w", cronExpr, err)
	}

	for {
		next, err := sched.next(time.Now().UTC())
		if err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "archiver waiting", slog.Time("next_run", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if err := a.Run(ctx); err != nil {
				a.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// cronField matches one field of a cron expression. A nil set matches all.
type cronField map[int]bool

func (f cronField) matches(v int) bool {
	return f == nil || f[v]
}

// parseCronField accepts "*", "*/n", and comma-separated values.
func parseCronField(field string, lo, hi int) (cronField, error) {
	if field == "*" {
		return nil, nil
	}
	if step, ok := strings.CutPrefix(field, "*/"); ok {
		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid cron step %q", field)
		}
		f := cronField{}
		for v := lo; v <= hi; v += n {
			f[v] = true
		}
		return f, nil
	}

	f := cronField{}
	for _, p := range strings.Split(field, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid cron field value %q: %w", p, err)
		}
		if v < lo || v > hi {
			return nil, fmt.Errorf("cron field value %d outside [%d, %d]", v, lo, hi)
		}
		f[v] = true
	}
	return f, nil
}

// schedule holds minute, hour, day-of-month, month, and day-of-week fields.
type schedule [5]cronField

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func parseCron(expr string) (schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return schedule{}, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}
	var s schedule
	for i, raw := range fields {
		f, err := parseCronField(raw, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return schedule{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		s[i] = f
	}
	return s, nil
}

func (s schedule) matches(t time.Time) bool {
	return s[0].matches(t.Minute()) &&
		s[1].matches(t.Hour()) &&
		s[2].matches(t.Day()) &&
		s[3].matches(int(t.Month())) &&
		s[4].matches(int(t.Weekday()))
}

// next returns the first minute after the given time that matches, searching
// at most a year ahead.
func (s schedule) next(after time.Time) (time.Time, error) {
	candidate := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(1, 0, 1)
	for ; candidate.Before(limit); candidate = candidate.Add(time.Minute) {
		if s.matches(candidate) {
			return candidate, nil
		}
	}
	return time.Time{}, errors.New("no matching cron time within one year")
}
