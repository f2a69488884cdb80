// Package projection derives the display view of a session: for each message
// a group of selectable, timestamped rows (categorized utterances, fallback
// text, or anchored images). Groups are value objects recomputed from the
// canonical message list on every mutation; nothing here is retained or
// mutated in place.
package projection

import "github.com/strato-space/voicesync/internal/models"

// RowKind tags the renderable unit a row represents.
type RowKind string

const (
	RowCategory RowKind = "category"
	RowText     RowKind = "text"
	RowImage    RowKind = "image"
)

// Row is a single renderable unit derived from a message.
type Row struct {
	Kind RowKind

	// Start and End are normalized seconds (non-negative, non-inverted).
	Start float64
	End   float64

	// Avatar is the single-letter speaker marker; Speaker the full label.
	Avatar  string
	Speaker string

	Text    string
	Goal    string
	Pattern string
	Flag    string
	Keyword string

	// ImageURI and ImageName are set on image rows only.
	ImageURI  string
	ImageName string

	// MessageID is the identity of the group's owning message.
	MessageID string

	// SourceMessageID is the identity of the message the row was derived
	// from. For anchored image rows it differs from MessageID.
	SourceMessageID string

	// MaterialGroupID ties rows that share anchored material across
	// messages; empty when no anchor relationship exists.
	MaterialGroupID string

	// AnchorMessageID and AnchorTargetID carry the resolved anchor link of
	// the group, stamped on every row for consumers that regroup by shared
	// material.
	AnchorMessageID string
	AnchorTargetID  string
}

// Key returns the row's selection identity: the owning message identity plus
// the normalized time range.
func (r Row) Key() RowKey {
	return RowKey{MessageID: r.MessageID, Start: r.Start, End: r.End}
}

// RowKey identifies a row for selection bookkeeping. Rows are recomputed on
// every transform, so selections are keyed by value, never by reference.
type RowKey struct {
	MessageID string
	Start     float64
	End       float64
}

// Group bundles one message's rows with message-level metadata.
type Group struct {
	MessageID       string
	Timestamp       float64
	Message         models.Message
	Rows            []Row
	Summary         string
	AnchorMessageID string
	MaterialGroupID string
}
