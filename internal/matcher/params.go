package matcher

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/phrase-matcher/internal/model"
)

// ErrInvalidParams is returned when matching parameters break the contract.
var ErrInvalidParams = eris.New("matcher: invalid params")

// Params configures one matching run. It is immutable for the duration of the run.
type Params struct {
	MinLen    int               `json:"min_len"`
	MaxLen    int               `json:"max_len"`
	Threshold float64           `json:"threshold"` // ratio in (0, 1]
	Mode      model.CompareMode `json:"compare_mode"`
	Workers   int               `json:"workers"` // 0 or 1 runs sequentially
}

// DefaultParams returns phrase lengths 3..4, an 0.85 threshold, cross-only
// comparison and a single worker.
func DefaultParams() Params {
	return Params{
		MinLen:    3,
		MaxLen:    4,
		Threshold: 0.85,
		Mode:      model.CompareCrossOnly,
		Workers:   1,
	}
}

// Validate checks the params against the matcher contract.
func (p Params) Validate() error {
	if p.MinLen < 1 {
		return eris.Wrapf(ErrInvalidParams, "min_len %d must be at least 1", p.MinLen)
	}
	if p.MaxLen < p.MinLen {
		return eris.Wrapf(ErrInvalidParams, "max_len %d must be >= min_len %d", p.MaxLen, p.MinLen)
	}
	if p.Threshold <= 0 || p.Threshold > 1 {
		return eris.Wrapf(ErrInvalidParams, "threshold %.4f must be in (0, 1]", p.Threshold)
	}
	if !p.Mode.Valid() {
		return eris.Wrapf(ErrInvalidParams, "unknown compare mode %q", p.Mode)
	}
	if p.Workers < 0 {
		return eris.Wrapf(ErrInvalidParams, "workers %d must not be negative", p.Workers)
	}
	return nil
}
