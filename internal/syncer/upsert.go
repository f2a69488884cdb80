package syncer

import "github.com/strato-space/voicesync/internal/models"

// Upsert applies one delta to the canonical list and returns the new list,
// deduplicated, deletion-filtered and sorted. The operation is idempotent:
// applying the same delta twice yields the same list.
func Upsert(list []models.Message, patch models.MessagePatch) []models.Message {
	if patch.IsDeleted() {
		return removeDeleted(list, patch)
	}

	if idx := findMatch(list, patch); idx >= 0 {
		patch.Apply(&list[idx])
	} else {
		list = append(list, patch.Message())
	}

	list = dropDeleted(list)
	SortMessages(list)
	return list
}

// removeDeleted handles a deletion delta: the matching entry goes away, and
// any other already-deleted entries are swept out as well (self-healing; the
// invariant is that deleted messages are never present).
func removeDeleted(list []models.Message, patch models.MessagePatch) []models.Message {
	out := list[:0]
	for _, m := range list {
		if m.Deleted || matches(m, patch) {
			continue
		}
		out = append(out, m)
	}
	SortMessages(out)
	return out
}

// findMatch locates the list entry the patch addresses. An identity match
// takes priority; a fallback match on raw logical or storage id equality
// catches entries whose identity computation differs transiently.
func findMatch(list []models.Message, patch models.MessagePatch) int {
	if id := patch.Identity(); id != "" {
		for i, m := range list {
			if m.Identity() == id {
				return i
			}
		}
	}
	for i, m := range list {
		if rawMatch(m, patch) {
			return i
		}
	}
	return -1
}

// matches reports whether a list entry is addressed by the patch, by
// identity or by raw field equality.
func matches(m models.Message, patch models.MessagePatch) bool {
	if id := patch.Identity(); id != "" && m.Identity() == id {
		return true
	}
	return rawMatch(m, patch)
}

func rawMatch(m models.Message, patch models.MessagePatch) bool {
	if patch.LogicalID != "" && m.LogicalID == patch.LogicalID {
		return true
	}
	if patch.StorageID != "" && m.StorageID == patch.StorageID {
		return true
	}
	return false
}

// HasMessage reports whether an entry with the patch's raw logical or
// storage id is already present. Used to suppress duplicate new-message
// deltas during replay races with the initial fetch.
func HasMessage(list []models.Message, patch models.MessagePatch) bool {
	for _, m := range list {
		if rawMatch(m, patch) {
			return true
		}
	}
	return false
}

func dropDeleted(list []models.Message) []models.Message {
	out := list[:0]
	for _, m := range list {
		if m.Deleted {
			continue
		}
		out = append(out, m)
	}
	return out
}
