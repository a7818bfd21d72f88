package extract

import (
	"sync/atomic"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// ProgressReporter tracks and reports extraction progress. It is safe for
// concurrent use by pool workers.
type ProgressReporter struct {
	name             string
	total            int64
	current          atomic.Int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(name string, total, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		name:             name,
		total:            total,
		progressInterval: interval,
	}
}

// Update adds n processed items and logs when an interval is crossed.
func (p *ProgressReporter) Update(n int64) {
	cur := p.current.Add(n)
	old := cur - n

	if cur/p.progressInterval > old/p.progressInterval {
		pct := 100.0
		if p.total > 0 {
			pct = float64(cur) / float64(p.total) * 100
		}
		logging.Info().
			Str("entity", p.name).
			Int64("items", cur).
			Int64("total", p.total).
			Float64("percent", pct).
			Msg("Extracting")
	}
}

// Current returns the processed item count.
func (p *ProgressReporter) Current() int64 {
	return p.current.Load()
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("entity", p.name).
		Int64("items", p.current.Load()).
		Msg("Extraction complete")
}
