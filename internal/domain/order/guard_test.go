package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	history := func(statuses ...Status) []HistoryEntry {
		entries := make([]HistoryEntry, len(statuses))
		for i, s := range statuses {
			entries[i] = HistoryEntry{Status: s}
		}
		return entries
	}

	testCases := []struct {
		name           string
		order          Order
		proposed       Status
		expectedSkip   bool
		expectedReason SkipReason
	}{
		{
			name:           "proceeds on fresh order",
			order:          Order{Status: StatusPendingPayment},
			proposed:       StatusProcessing,
			expectedSkip:   false,
			expectedReason: SkipNone,
		},
		{
			name:           "skips when status is already current",
			order:          Order{Status: StatusProcessing, StatusHistory: history(StatusProcessing)},
			proposed:       StatusProcessing,
			expectedSkip:   true,
			expectedReason: SkipAlreadySet,
		},
		{
			name:           "skips pending after order was paid",
			order:          Order{Status: StatusProcessing, StatusHistory: history(StatusPendingPayment, StatusProcessing)},
			proposed:       StatusPendingPayment,
			expectedSkip:   true,
			expectedReason: SkipAlreadyFinal,
		},
		{
			name:           "skips failure after order was paid even when current status moved on",
			order:          Order{Status: StatusRefunded, StatusHistory: history(StatusProcessing, StatusRefunded)},
			proposed:       StatusCanceled,
			expectedSkip:   true,
			expectedReason: SkipAlreadyFinal,
		},
		{
			name:           "skips status already recorded in history",
			order:          Order{Status: StatusCanceled, StatusHistory: history(StatusPendingPayment, StatusCanceled)},
			proposed:       StatusPendingPayment,
			expectedSkip:   true,
			expectedReason: SkipAlreadyInPast,
		},
		{
			name:           "already-current wins over already-in-history",
			order:          Order{Status: StatusPendingPayment, StatusHistory: history(StatusPendingPayment)},
			proposed:       StatusPendingPayment,
			expectedSkip:   true,
			expectedReason: SkipAlreadySet,
		},
		{
			name:           "paid transition proceeds even with paid absent from history",
			order:          Order{Status: StatusPendingPayment, StatusHistory: history(StatusPendingPayment)},
			proposed:       StatusProcessing,
			expectedSkip:   false,
			expectedReason: SkipNone,
		},
		{
			name:           "failure proceeds when order was never paid",
			order:          Order{Status: StatusPendingPayment, StatusHistory: history(StatusPendingPayment)},
			proposed:       StatusCanceled,
			expectedSkip:   false,
			expectedReason: SkipNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			skip, reason := ShouldSkip(&tc.order, tc.proposed)

			assert.Equal(t, tc.expectedSkip, skip)
			assert.Equal(t, tc.expectedReason, reason)
		})
	}
}

// Replaying any notification against the state it produced must be a no-op:
// the applied transition is both current and in history afterwards, so rule 1
// or rule 3 always fires on the second delivery.
func TestShouldSkip_ReplayIsNoOp(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusProcessing, StatusPendingPayment, StatusCanceled} {
		o := Order{
			Status:        status,
			StatusHistory: []HistoryEntry{{Status: status}},
		}

		skip, _ := ShouldSkip(&o, status)
		assert.True(t, skip, "replay of %s must be skipped", status)
	}
}
