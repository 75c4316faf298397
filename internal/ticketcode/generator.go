// Package ticketcode generates human-readable ticket codes of the form
// TK<YYYY><MM><NNN>, where NNN restarts every calendar month.
//
// Generation is best-effort sequential: if the sequence cannot be
// determined the generator degrades to a timestamp-based code built from
// the year and the last six digits of the Unix millisecond clock,
// TK<YYYY>-<NNNNNN>. The dash keeps fallback codes out of every monthly
// sequence. Callers never receive an error, only a non-empty code.
package ticketcode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Prefix starts every ticket code.
const Prefix = "TK"

// periodLen is len("TKYYYYMM").
const periodLen = len(Prefix) + 6

// LatestFinder looks up the highest code with the given prefix created in [from, to].
// It returns "" when the period has no tickets yet.
type LatestFinder interface {
	LatestCodeBetween(ctx context.Context, prefix string, from, to time.Time) (string, error)
}

// Counter hands out the next sequence number for a period atomically.
// seed returns the last sequence already used and is consulted only when
// the counter has no value for the period.
type Counter interface {
	Next(ctx context.Context, period string, seed func(context.Context) (int, error)) (int, error)
}

// Generator produces ticket codes.
type Generator struct {
	finder  LatestFinder
	counter Counter
	now     func() time.Time
	logger  *zap.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithCounter makes the generator draw sequences from an atomic counter.
func WithCounter(counter Counter) Option {
	return func(g *Generator) { g.counter = counter }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator builds a generator backed by finder.
func NewGenerator(finder LatestFinder, opts ...Option) *Generator {
	g := &Generator{
		finder: finder,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a new ticket code.
func (g *Generator) Next(ctx context.Context) string {
	now := g.now()
	code, err := g.sequential(ctx, now)
	if err != nil {
		fallback := Fallback(now)
		g.logger.Warn("ticket code sequence unavailable, using timestamp code",
			zap.Error(err), zap.String("code", fallback))
		return fallback
	}
	return code
}

func (g *Generator) sequential(ctx context.Context, now time.Time) (string, error) {
	if g.finder == nil {
		return "", errors.New("no ticket code source configured")
	}
	seed := func(ctx context.Context) (int, error) {
		return g.lastSequence(ctx, now)
	}

	var seq int
	if g.counter != nil {
		next, err := g.counter.Next(ctx, Period(now), seed)
		if err != nil {
			return "", fmt.Errorf("counter: %w", err)
		}
		seq = next
	} else {
		last, err := seed(ctx)
		if err != nil {
			return "", err
		}
		seq = last + 1
	}
	if seq <= 0 {
		return "", fmt.Errorf("non-positive sequence %d", seq)
	}
	return Format(now, seq), nil
}

func (g *Generator) lastSequence(ctx context.Context, now time.Time) (int, error) {
	from, to := MonthBounds(now)
	prefix := Prefix + Period(now)
	latest, err := g.finder.LatestCodeBetween(ctx, prefix, from, to)
	if err != nil {
		return 0, fmt.Errorf("latest code: %w", err)
	}
	if latest == "" {
		return 0, nil
	}
	return ParseSequence(latest)
}

// Period renders the YYYYMM portion of a code.
func Period(t time.Time) string {
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}

// Format builds a sequential code, zero-padding the sequence to three digits.
func Format(t time.Time, seq int) string {
	return fmt.Sprintf("%s%s%03d", Prefix, Period(t), seq)
}

// Fallback builds the timestamp-based code used when sequencing fails.
func Fallback(t time.Time) string {
	return fmt.Sprintf("%s%04d-%06d", Prefix, t.Year(), t.UnixMilli()%1_000_000)
}

// ParseSequence extracts the numeric suffix of a sequential code.
func ParseSequence(code string) (int, error) {
	if !strings.HasPrefix(code, Prefix) || len(code) <= periodLen || !allDigits(code[len(Prefix):]) {
		return 0, fmt.Errorf("malformed ticket code %q", code)
	}
	seq, err := strconv.Atoi(code[periodLen:])
	if err != nil {
		return 0, fmt.Errorf("malformed ticket code %q", code)
	}
	return seq, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MonthBounds returns the first and last instant of t's calendar month in t's location.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}
