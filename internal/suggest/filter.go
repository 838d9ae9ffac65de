package suggest

import (
	"fmt"

	"curator/internal/plan"
)

// Filter splits proposals on a confidence threshold. The comparison is
// inclusive: a proposal exactly at the threshold is approved. Raising the
// threshold can only shrink the approved set.
func Filter(proposals []plan.Operation, threshold float64) (approved, rejected []plan.Operation) {
	for _, op := range proposals {
		if op.Confidence >= threshold {
			op.Status = plan.StatusApproved
			approved = append(approved, op)
			continue
		}
		op = op.Rejected(fmt.Sprintf("confidence %.2f below threshold %.2f", op.Confidence, threshold))
		rejected = append(rejected, op)
	}
	return approved, rejected
}
