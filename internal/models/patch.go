package models

import "strings"

// MessagePatch is a partial update to a message. Nil fields are absent from
// the delta and preserve the existing value on merge; a patch carrying every
// field is a full message.
type MessagePatch struct {
	LogicalID string
	StorageID string

	Timestamp             *float64
	Deleted               *bool
	Text                  *string
	Transcript            *string
	Segments              []Segment
	Categories            []Category
	Attachments           []Attachment
	AnchorMessageID       *string
	AnchorLinkedMessageID *string
	Processing            map[string]ProcessorResult
}

// Identity returns the canonical identity the patch addresses.
func (p MessagePatch) Identity() string {
	if id := strings.TrimSpace(p.LogicalID); id != "" {
		return id
	}
	if id := strings.TrimSpace(p.StorageID); id != "" {
		return id
	}
	return ""
}

// IsDeleted reports whether the patch carries a set deletion flag.
func (p MessagePatch) IsDeleted() bool {
	return p.Deleted != nil && *p.Deleted
}

// Apply merges the patch onto an existing message. Fields present in the
// patch override; absent fields are preserved. Ids refresh only when the
// patch carries them.
func (p MessagePatch) Apply(m *Message) {
	if p.LogicalID != "" {
		m.LogicalID = p.LogicalID
	}
	if p.StorageID != "" {
		m.StorageID = p.StorageID
	}
	if p.Timestamp != nil {
		m.Timestamp = *p.Timestamp
	}
	if p.Deleted != nil {
		m.Deleted = *p.Deleted
	}
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Transcript != nil {
		m.Transcript = *p.Transcript
	}
	if p.Segments != nil {
		m.Segments = p.Segments
	}
	if p.Categories != nil {
		m.Categories = p.Categories
	}
	if p.Attachments != nil {
		m.Attachments = p.Attachments
	}
	if p.AnchorMessageID != nil {
		m.AnchorMessageID = *p.AnchorMessageID
	}
	if p.AnchorLinkedMessageID != nil {
		m.AnchorLinkedMessageID = *p.AnchorLinkedMessageID
	}
	if p.Processing != nil {
		m.Processing = p.Processing
	}
}

// Message materializes the patch as a fully-defaulted message record.
func (p MessagePatch) Message() Message {
	var m Message
	p.Apply(&m)
	return m
}

// Patch converts a full message back into a fully-populated patch, used when
// replaying stored snapshots through the same upsert path as live deltas.
func (m Message) Patch() MessagePatch {
	timestamp := m.Timestamp
	deleted := m.Deleted
	text := m.Text
	transcript := m.Transcript
	anchor := m.AnchorMessageID
	linked := m.AnchorLinkedMessageID
	return MessagePatch{
		LogicalID:             m.LogicalID,
		StorageID:             m.StorageID,
		Timestamp:             &timestamp,
		Deleted:               &deleted,
		Text:                  &text,
		Transcript:            &transcript,
		Segments:              m.Segments,
		Categories:            m.Categories,
		Attachments:           m.Attachments,
		AnchorMessageID:       &anchor,
		AnchorLinkedMessageID: &linked,
		Processing:            m.Processing,
	}
}
