package engine

import "math"

// Frecency scoring:
//   - every retained visit contributes exp(-λ · age_in_days)
//   - λ = ln(2) / 30, so a visit 30 days old weighs half a fresh one
//   - visits in the future relative to the reference time count as age 0
//   - the visit log keeps only the newest MaxVisitLogSize entries per path
const (
	HalfLifeDays           = 30
	DayInMilliSec          = 86_400_000
	DefaultMaxVisitLogSize = 20
)

// Lambda is the per-day decay constant derived from HalfLifeDays.
const Lambda = math.Ln2 / HalfLifeDays

// ComputeScore returns the decayed score of visits as seen from ref.
// Both ref and visits are milliseconds since the Unix epoch. visits must be non-empty.
func ComputeScore(ref int64, visits []int64) float64 {
	if len(visits) == 0 {
		panic("engine: ComputeScore called with no visits")
	}

	score := 0.0
	for _, v := range visits {
		age := ref - v
		if age < 0 {
			age = 0
		}
		days := float64(age) / DayInMilliSec
		score += math.Exp(-Lambda * days)
	}
	return score
}

// Plan is the outcome of a new visit: what to write for the score and which
// logged visits fall off the end of the log.
type Plan struct {
	FirstVisit bool
	Score      float64
	// Evict lists the visits to drop from the log, oldest first. Their weight
	// is still part of Score.
	Evict []int64
}

// PlanUpdate appends latest to prior (ascending, oldest first), scores the
// full history at latest and trims it to maxLogSize entries.
func PlanUpdate(prior []int64, latest int64, maxLogSize int) Plan {
	if maxLogSize <= 0 {
		panic("engine: maxLogSize must be positive")
	}

	full := make([]int64, 0, len(prior)+1)
	full = append(full, prior...)
	full = append(full, latest)

	p := Plan{
		FirstVisit: len(prior) == 0,
		Score:      ComputeScore(latest, full),
	}
	if over := len(full) - maxLogSize; over > 0 {
		p.Evict = full[:over]
	}
	return p
}
