// Package heuristic provides a local severity estimator that needs no
// external service. It applies the built-in weighted scoring over the
// calibration word bank, so it is always available as the fallback when the
// hosted model is unreachable.
package heuristic

import (
	"context"
	"errors"

	"github.com/kalpana-health/vaakya/internal/assess"
	"github.com/kalpana-health/vaakya/pkg/provider/severity"
)

// Compile-time interface assertion.
var _ severity.Provider = (*Provider)(nil)

// heuristicConfidence is reported on every estimate. The weighted average is
// deterministic but calibrated against a small word bank, so it carries less
// certainty than a trained model.
const heuristicConfidence = 0.6

// Provider implements severity.Provider with the built-in weighted average.
type Provider struct{}

// New returns a ready-to-use heuristic estimator.
func New() *Provider {
	return &Provider{}
}

// Estimate computes the weighted WAB-AQ estimate from the calibration round.
// Word difficulty weights come from the built-in word bank; words not in the
// bank count at basic weight.
func (p *Provider) Estimate(_ context.Context, req severity.Request) (severity.Estimate, error) {
	if len(req.Words) == 0 {
		return severity.Estimate{}, errors.New("heuristic: no scored words")
	}

	results := make([]assess.WordResult, 0, len(req.Words))
	for _, w := range req.Words {
		results = append(results, assess.WordResult{Word: w.Word, Accuracy: w.Accuracy})
	}

	r := assess.Evaluate(results, req.Language)
	return severity.Estimate{
		WAB:        r.EstimatedWAB,
		Confidence: heuristicConfidence,
	}, nil
}
