package projection

import (
	"sort"
	"strings"

	"github.com/strato-space/voicesync/internal/models"
)

// SortGroups orders groups for display. Voice sessions (the default source)
// compare the externally supplied per-group ordering id; any other source
// compares message timestamps. The sort is stable either way.
func SortGroups(groups []Group, ascending bool, source string, orderingID func(Group) string) {
	byOrdering := (source == "" || source == models.SourceVoice) && orderingID != nil

	sort.SliceStable(groups, func(i, j int) bool {
		var cmp int
		if byOrdering {
			cmp = strings.Compare(orderingID(groups[i]), orderingID(groups[j]))
		} else {
			switch {
			case groups[i].Timestamp < groups[j].Timestamp:
				cmp = -1
			case groups[i].Timestamp > groups[j].Timestamp:
				cmp = 1
			}
		}
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	})
}

// SortRowsByEnd orders a group's rows by their normalized end time, stable.
func SortRowsByEnd(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].End < rows[j].End
	})
}

// DefaultAscending derives the initial sort direction from session state:
// descending while the session is active, ascending once closed.
func DefaultAscending(s models.Session) bool {
	return !s.IsActive
}
