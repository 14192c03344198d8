package classifier

import (
	"fmt"
	"math"
)

// Result is the output of a vision classification: one winning label from a
// fixed closed set plus the full probability distribution over that set.
type Result struct {
	Prediction string             `json:"prediction"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

// Validate checks the distribution invariants: the prediction is the argmax
// of the scores, its score equals the confidence, and the scores sum to 1.
func (r Result) Validate() error {
	if len(r.Scores) == 0 {
		return fmt.Errorf("result has no scores")
	}

	score, ok := r.Scores[r.Prediction]
	if !ok {
		return fmt.Errorf("prediction %q is not among the scored labels", r.Prediction)
	}

	if score != r.Confidence {
		return fmt.Errorf("confidence %v does not match score %v for %q", r.Confidence, score, r.Prediction)
	}

	var sum float64
	for label, s := range r.Scores {
		if s > r.Confidence {
			return fmt.Errorf("label %q outscores the prediction", label)
		}
		sum += s
	}

	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("scores sum to %v, want 1", sum)
	}

	return nil
}
