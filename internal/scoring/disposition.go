package scoring

import (
	"fmt"

	"shortpipe/internal/services"
)

// Disposition values persisted on queue items.
const (
	DispositionAutoApprove  = "auto-approve"
	DispositionAutoReject   = "auto-reject"
	DispositionManualReview = "manual-review"
)

// Thresholds are the configured disposition cut points.
type Thresholds struct {
	Approve int
	Reject  int
}

// Validate rejects threshold configurations the disposition function
// cannot be monotonic under.
func (t Thresholds) Validate() error {
	if t.Approve < 0 || t.Approve > 100 || t.Reject < 0 || t.Reject > 100 {
		return services.Wrap(services.ErrConfiguration, "scoring", "validate thresholds",
			fmt.Sprintf("thresholds must be within 0..100 (approve=%d reject=%d)", t.Approve, t.Reject), nil)
	}
	if t.Reject > t.Approve {
		return services.Wrap(services.ErrConfiguration, "scoring", "validate thresholds",
			fmt.Sprintf("reject threshold %d exceeds approve threshold %d", t.Reject, t.Approve), nil)
	}
	return nil
}

// Disposition maps a total score onto an outcome. The mapping is pure
// and monotonic: higher scores never map to a stricter outcome.
func Disposition(score int, t Thresholds) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	switch {
	case score >= t.Approve:
		return DispositionAutoApprove, nil
	case score < t.Reject:
		return DispositionAutoReject, nil
	default:
		return DispositionManualReview, nil
	}
}
