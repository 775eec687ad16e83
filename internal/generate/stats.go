package generate

import (
	"slices"
	"sync"
	"time"
)

// Kind names a generation request type.
type Kind string

const (
	KindSummary Kind = "summary"
	KindDetails Kind = "details"
)

type observation struct {
	at         time.Time
	durationMs int64
	failed     bool
}

// KindSnapshot aggregates the observations for one Kind.
type KindSnapshot struct {
	Calls    int     `json:"calls"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Stats keeps per-kind call latencies over a rolling window.
type Stats struct {
	mu     sync.Mutex
	byKind map[Kind][]observation
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		byKind: make(map[Kind][]observation),
		window: window,
		now:    time.Now,
	}
}

// Record adds one call. A non-nil err counts as a failure.
func (s *Stats) Record(kind Kind, durationMs int64, err error) {
	if durationMs < 0 {
		durationMs = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.byKind[kind] = append(s.byKind[kind], observation{
		at:         now,
		durationMs: durationMs,
		failed:     err != nil,
	})
}

// Snapshot returns aggregates for every kind seen inside the window.
func (s *Stats) Snapshot() map[Kind]KindSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	out := make(map[Kind]KindSnapshot, len(s.byKind))
	for kind, obs := range s.byKind {
		out[kind] = aggregate(obs)
	}
	return out
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	for kind, obs := range s.byKind {
		kept := obs[:0]
		for _, o := range obs {
			if !o.at.Before(cutoff) {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			delete(s.byKind, kind)
			continue
		}
		s.byKind[kind] = kept
	}
}

func aggregate(obs []observation) KindSnapshot {
	snap := KindSnapshot{Calls: len(obs)}
	if len(obs) == 0 {
		return snap
	}
	values := make([]int64, 0, len(obs))
	var sum int64
	for _, o := range obs {
		if o.failed {
			snap.Failures++
		}
		values = append(values, o.durationMs)
		sum += o.durationMs
	}
	slices.Sort(values)

	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100.0
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}
