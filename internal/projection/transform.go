package projection

import (
	"strings"
	"unicode"

	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/timeline"
)

// summaryProcessor is the backend processor whose output becomes the group
// summary.
const summaryProcessor = "summarize"

// defaultAvatar marks rows whose speaker is empty or unresolved.
const defaultAvatar = "U"

// Transform folds the canonical, ordered, deletion-filtered message list
// into display groups. Messages yielding no rows emit no group; messages
// whose images are claimed by another message's anchor are suppressed
// entirely. Transform does not sort groups; display order is the consumer's
// concern (see SortGroups).
func Transform(messages []models.Message) []Group {
	idx := buildAnchorIndex(messages)

	groups := make([]Group, 0, len(messages))
	for _, m := range messages {
		if m.Deleted {
			continue
		}
		id := m.Identity()
		if idx.suppressed(id) {
			continue
		}

		rows := categoryRows(m)
		own := idx.own[id]
		if len(rows) == 0 {
			rows = fallbackRows(m, own)
		} else if len(own) > 0 {
			rows = append(append([]Row{}, own...), rows...)
		}

		anchorRows, anchorID := idx.anchorRowsFor(m, id)
		if len(anchorRows) > 0 {
			rows = append(anchorRows, rows...)
		}

		if len(rows) == 0 {
			continue
		}

		materialID := ""
		if anchorID != "" {
			materialID = anchorID + ":" + id
		}
		for i := range rows {
			rows[i].MessageID = id
			if rows[i].SourceMessageID == "" {
				rows[i].SourceMessageID = id
			}
			rows[i].MaterialGroupID = materialID
			rows[i].AnchorMessageID = anchorID
			if anchorID != "" {
				rows[i].AnchorTargetID = id
			}
		}

		groups = append(groups, Group{
			MessageID:       id,
			Timestamp:       m.Timestamp,
			Message:         m,
			Rows:            rows,
			Summary:         m.Processing[summaryProcessor].Summary,
			AnchorMessageID: anchorID,
			MaterialGroupID: materialID,
		})
	}
	return groups
}

// anchorRowsFor collects image rows claimed from other messages: a direct
// anchor reference first, then explicit links declared by image-bearing
// messages. The second return is the resolved anchor identity.
func (idx anchorIndex) anchorRowsFor(m models.Message, id string) ([]Row, string) {
	var rows []Row
	anchorID := ""

	if anchor := strings.TrimSpace(m.AnchorMessageID); anchor != "" {
		if own := idx.own[anchor]; len(own) > 0 {
			rows = append(rows, own...)
			anchorID = anchor
		}
	}
	for _, link := range idx.linked[id] {
		rows = append(rows, link.rows...)
		if anchorID == "" {
			anchorID = link.source
		}
	}
	return rows, anchorID
}

// categoryRows derives one row per categorization chunk with non-empty text.
func categoryRows(m models.Message) []Row {
	var rows []Row
	for _, c := range m.Categories {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		start, end := timeline.Range(c.Start, c.End)
		rows = append(rows, Row{
			Kind:    RowCategory,
			Start:   start,
			End:     end,
			Avatar:  avatarFor(c.Speaker),
			Speaker: c.Speaker,
			Text:    text,
			Goal:    c.Goal,
			Pattern: c.Pattern,
			Flag:    c.Flag,
			Keyword: c.Keyword,
		})
	}
	return rows
}

// fallbackRows applies when no categorization rows exist: the message's own
// image rows if any, else a single plain-text row, else nothing.
func fallbackRows(m models.Message, own []Row) []Row {
	if len(own) > 0 {
		return append([]Row{}, own...)
	}
	text := strings.TrimSpace(m.Transcript)
	if text == "" {
		text = strings.TrimSpace(m.Text)
	}
	if text == "" {
		return nil
	}
	return []Row{{Kind: RowText, Text: text, Avatar: defaultAvatar}}
}

// avatarFor derives the single-letter speaker marker: the uppercased first
// rune of the label, or "U" when the speaker is empty or unknown.
func avatarFor(speaker string) string {
	trimmed := strings.TrimSpace(speaker)
	if trimmed == "" || trimmed == "Unknown" {
		return defaultAvatar
	}
	r := []rune(trimmed)[0]
	return string(unicode.ToUpper(r))
}
