package order

// SkipReason explains why the reconciliation guard suppressed a transition.
// The HTTP response is identical for every skip (200, empty body); the reason
// only feeds logs and metrics.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipAlreadySet    SkipReason = "already_set"     // order is already in the proposed status
	SkipAlreadyFinal  SkipReason = "already_final"   // order already reached the paid status
	SkipAlreadyInPast SkipReason = "already_in_past" // proposed status already recorded in history
)

// ShouldSkip decides whether applying the proposed status to the order would
// be redundant. Rules are evaluated in priority order, first match wins:
//
//  1. the proposed status is already the current one;
//  2. the order has already been fully paid and the proposal would regress
//     out of that state;
//  3. the proposed status is already somewhere in the history, so the same
//     delivery was applied before (out-of-order or retried notification).
//
// Deliveries from the provider carry no ordering guarantee; this commutative
// skip logic is what makes duplicates and reordering safe.
func ShouldSkip(o *Order, proposed Status) (bool, SkipReason) {
	if o.Status == proposed {
		return true, SkipAlreadySet
	}
	if proposed != StatusProcessing && o.HistoryContains(StatusProcessing) {
		return true, SkipAlreadyFinal
	}
	if o.HistoryContains(proposed) {
		return true, SkipAlreadyInPast
	}
	return false, SkipNone
}
