// Package severity defines the Provider interface for aphasia severity
// estimation backends.
//
// During the initial assessment the patient reads a set of calibration words
// and each attempt is scored for accuracy. A severity provider maps those
// per-word accuracies to an estimated WAB-AQ score (Western Aphasia Battery
// Aphasia Quotient, 0–100). The estimate can come from a hosted model or from
// the built-in weighted heuristic.
//
// Implementations must be safe for concurrent use.
package severity

import "context"

// WordAccuracy is one scored calibration word.
type WordAccuracy struct {
	// Word is the target word the patient attempted.
	Word string `json:"word"`

	// Accuracy is the pronunciation accuracy in percent (0–100).
	Accuracy float64 `json:"accuracy"`
}

// Request carries a completed calibration round to the estimator.
type Request struct {
	// Language is the BCP-47 language tag of the calibration words.
	Language string `json:"language"`

	// Words lists every scored attempt in order.
	Words []WordAccuracy `json:"words"`
}

// Estimate is the estimator's verdict.
type Estimate struct {
	// WAB is the estimated WAB-AQ score (0–100, higher is better).
	WAB float64 `json:"wab"`

	// Confidence is the estimator's confidence in WAB (0.0–1.0). Zero when
	// the backend does not report confidence.
	Confidence float64 `json:"confidence"`
}

// Provider is the abstraction over any severity estimation backend.
type Provider interface {
	// Estimate maps the calibration round to a WAB-AQ estimate. It blocks
	// until the backend responds or ctx is done.
	Estimate(ctx context.Context, req Request) (Estimate, error)
}
