// Package models defines the canonical records for voice session
// synchronization. Every wire shape (legacy and current) is normalized at the
// boundary into these fully-defaulted records; downstream packages never
// branch on field presence.
package models

import "strings"

// SegmentChunkPrefix is the reserved id prefix for transcript segments that
// are eligible for user edit/delete actions. Segments with other id formats
// are display-only.
const SegmentChunkPrefix = "chunk-"

// Message is the atomic unit of truth: one ingested turn (voice, text or
// image) in a session.
type Message struct {
	// LogicalID is the stable business key. May be empty.
	LogicalID string

	// StorageID is the backend-assigned id. May be empty.
	StorageID string

	// Timestamp orders messages. Defaults to 0 when absent or non-numeric.
	Timestamp float64

	// Deleted marks a soft-deleted message. Deleted messages are never kept
	// in the canonical list.
	Deleted bool

	// Text is the message free text.
	Text string

	// Transcript is the free-text transcript of the voice turn.
	Transcript string

	// Segments are the structured transcript chunks.
	Segments []Segment

	// Categories are the categorized utterances.
	Categories []Category

	// Attachments carry uploaded files; image attachments become rows.
	Attachments []Attachment

	// AnchorMessageID links this message's group to the images of another
	// message: "prepend that message's images to my rows".
	AnchorMessageID string

	// AnchorLinkedMessageID, set on an image-bearing message, gives away its
	// images to the group of the referenced message.
	AnchorLinkedMessageID string

	// Processing holds per-processor backend output keyed by processor name.
	Processing map[string]ProcessorResult
}

// ProcessorResult is the output of one backend processor for a message.
type ProcessorResult struct {
	Summary string
	Status  string
}

// Identity returns the canonical identity of the message: the logical id if
// present, else the storage id, else the empty string ("unidentifiable").
func (m Message) Identity() string {
	if id := strings.TrimSpace(m.LogicalID); id != "" {
		return id
	}
	if id := strings.TrimSpace(m.StorageID); id != "" {
		return id
	}
	return ""
}

// Segment is a transcript chunk with its own timing and edit identity.
// Start and End hold raw wire values (seconds or clock strings); they are
// normalized by the projection layer.
type Segment struct {
	ID      string
	Start   string
	End     string
	Speaker string
	Text    string
	Deleted bool
}

// Editable reports whether the segment may be edited or deleted by the user.
func (s Segment) Editable() bool {
	return strings.HasPrefix(s.ID, SegmentChunkPrefix)
}

// Category is one categorized utterance of a message.
type Category struct {
	Start   string
	End     string
	Speaker string
	Text    string
	Goal    string
	Pattern string
	Flag    string
	Keyword string
}

// Attachment is one uploaded file of a message.
type Attachment struct {
	Kind         string
	MIME         string
	DirectURI    string
	URI          string
	URL          string
	Name         string
	FileID       string
	FileUniqueID string
	Size         int64
	Width        int
	Height       int
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIME, "image/") || a.Kind == "image"
}
