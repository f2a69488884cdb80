// Package syncer owns the canonical message list for one session: identity
// resolution, total ordering and the idempotent upsert applied to every
// incoming delta. The list holds at most one entry per identity and never
// holds soft-deleted messages.
package syncer

import (
	"math"
	"sort"

	"github.com/strato-space/voicesync/internal/models"
)

// orderTimestamp maps a message timestamp to its sort key. Non-finite values
// order as zero.
func orderTimestamp(ts float64) float64 {
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return 0
	}
	return ts
}

// orderTiebreak is the deterministic tiebreak for equal timestamps: the raw
// logical id, else the raw storage id, else empty.
func orderTiebreak(m models.Message) string {
	if m.LogicalID != "" {
		return m.LogicalID
	}
	return m.StorageID
}

// Less reports whether a orders before b: timestamp first, identity tiebreak
// second. The order is total and deterministic for identical inputs.
func Less(a, b models.Message) bool {
	at, bt := orderTimestamp(a.Timestamp), orderTimestamp(b.Timestamp)
	if at != bt {
		return at < bt
	}
	return orderTiebreak(a) < orderTiebreak(b)
}

// SortMessages sorts the list in place by the total order. The sort is
// stable, so repeated sorting of the same list yields identical output.
func SortMessages(list []models.Message) {
	sort.SliceStable(list, func(i, j int) bool {
		return Less(list[i], list[j])
	})
}
