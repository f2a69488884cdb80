package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// wireMessage is the raw message delta as pushed by the backend. Most fields
// use json.RawMessage because producers emit several shapes for the same
// field (numbers as strings, legacy object layouts, tri-state flags).
type wireMessage struct {
	MessageID     json.RawMessage   `json:"message_id"`
	ID            json.RawMessage   `json:"id"`
	Timestamp     json.RawMessage   `json:"timestamp"`
	IsDeleted     json.RawMessage   `json:"is_deleted"`
	Text          *string           `json:"text"`
	VoiceText     *string           `json:"voice_text"`
	Transcription json.RawMessage   `json:"transcription"`
	Categories    []wireCategory    `json:"categorization"`
	Attachments   []json.RawMessage `json:"attachments"`

	ImageAnchorMessageID       *string `json:"image_anchor_message_id"`
	ImageAnchorLinkedMessageID *string `json:"image_anchor_linked_message_id"`

	Processing map[string]wireProcessorResult `json:"processing"`
}

type wireProcessorResult struct {
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

type wireCategory struct {
	Start   json.RawMessage `json:"start"`
	End     json.RawMessage `json:"end"`
	Speaker string          `json:"speaker"`
	Text    string          `json:"text"`
	Goal    string          `json:"goal"`
	Pattern string          `json:"pattern"`
	Flag    string          `json:"flag"`
	Keyword string          `json:"keyword"`
}

// wireSegment carries both the current and the legacy transcript chunk
// layout. The schema is detected per element: a chunk with "chunk_id" (and
// "from"/"to"/"speaker_name"/"content") is legacy, everything else current.
type wireSegment struct {
	ID        json.RawMessage `json:"id"`
	Start     json.RawMessage `json:"start"`
	End       json.RawMessage `json:"end"`
	Speaker   *string         `json:"speaker"`
	Text      *string         `json:"text"`
	IsDeleted json.RawMessage `json:"is_deleted"`

	ChunkID     json.RawMessage `json:"chunk_id"`
	From        json.RawMessage `json:"from"`
	To          json.RawMessage `json:"to"`
	SpeakerName *string         `json:"speaker_name"`
	Content     *string         `json:"content"`
	Deleted     json.RawMessage `json:"deleted"`
}

// wireAttachment carries both attachment layouts: the current one
// (kind/mime_type/direct_uri/uri) and the legacy one
// (type/content_type/file_path/file_name).
type wireAttachment struct {
	Kind         string          `json:"kind"`
	MIME         string          `json:"mime_type"`
	DirectURI    string          `json:"direct_uri"`
	URI          string          `json:"uri"`
	URL          string          `json:"url"`
	Name         string          `json:"name"`
	FileID       string          `json:"file_id"`
	FileUniqueID string          `json:"file_unique_id"`
	Size         json.RawMessage `json:"size"`
	Width        json.RawMessage `json:"width"`
	Height       json.RawMessage `json:"height"`

	Type        string `json:"type"`
	ContentType string `json:"content_type"`
	FilePath    string `json:"file_path"`
	FileName    string `json:"file_name"`
}

// DecodeMessagePatch normalizes one raw message delta into a MessagePatch.
// Unknown fields are ignored; malformed JSON is the only error.
func DecodeMessagePatch(data []byte) (MessagePatch, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return MessagePatch{}, err
	}

	p := MessagePatch{
		LogicalID:             rawString(w.MessageID),
		StorageID:             rawString(w.ID),
		Text:                  w.Text,
		Transcript:            w.VoiceText,
		AnchorMessageID:       w.ImageAnchorMessageID,
		AnchorLinkedMessageID: w.ImageAnchorLinkedMessageID,
	}

	if w.Timestamp != nil {
		ts := rawFloat(w.Timestamp)
		p.Timestamp = &ts
	}
	if deleted, present := rawFlag(w.IsDeleted); present {
		p.Deleted = &deleted
	}
	if w.Transcription != nil {
		p.Segments = decodeSegments(w.Transcription)
	}
	if w.Categories != nil {
		p.Categories = make([]Category, 0, len(w.Categories))
		for _, c := range w.Categories {
			p.Categories = append(p.Categories, Category{
				Start:   rawValue(c.Start),
				End:     rawValue(c.End),
				Speaker: c.Speaker,
				Text:    c.Text,
				Goal:    c.Goal,
				Pattern: c.Pattern,
				Flag:    c.Flag,
				Keyword: c.Keyword,
			})
		}
	}
	if w.Attachments != nil {
		p.Attachments = make([]Attachment, 0, len(w.Attachments))
		for _, raw := range w.Attachments {
			var a wireAttachment
			if err := json.Unmarshal(raw, &a); err != nil {
				continue
			}
			p.Attachments = append(p.Attachments, a.normalize())
		}
	}
	if w.Processing != nil {
		p.Processing = make(map[string]ProcessorResult, len(w.Processing))
		for name, r := range w.Processing {
			p.Processing[name] = ProcessorResult{Summary: r.Summary, Status: r.Status}
		}
	}

	return p, nil
}

// decodeSegments accepts the current array shape, the legacy array shape and
// the oldest form, a plain transcript string (which carries no segments).
func decodeSegments(raw json.RawMessage) []Segment {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return []Segment{}
	}

	out := make([]Segment, 0, len(elements))
	for _, el := range elements {
		var w wireSegment
		if err := json.Unmarshal(el, &w); err != nil {
			continue
		}
		if w.ChunkID != nil {
			out = append(out, w.legacySegment())
			continue
		}
		out = append(out, w.currentSegment())
	}
	return out
}

func (w wireSegment) currentSegment() Segment {
	s := Segment{
		ID:    rawString(w.ID),
		Start: rawValue(w.Start),
		End:   rawValue(w.End),
	}
	if w.Speaker != nil {
		s.Speaker = *w.Speaker
	}
	if w.Text != nil {
		s.Text = *w.Text
	}
	deleted, _ := rawFlag(w.IsDeleted)
	s.Deleted = deleted
	return s
}

func (w wireSegment) legacySegment() Segment {
	s := Segment{
		ID:    rawString(w.ChunkID),
		Start: rawValue(w.From),
		End:   rawValue(w.To),
	}
	if w.SpeakerName != nil {
		s.Speaker = *w.SpeakerName
	}
	if w.Content != nil {
		s.Text = *w.Content
	}
	deleted, _ := rawFlag(w.Deleted)
	s.Deleted = deleted
	return s
}

func (w wireAttachment) normalize() Attachment {
	a := Attachment{
		Kind:         w.Kind,
		MIME:         w.MIME,
		DirectURI:    w.DirectURI,
		URI:          w.URI,
		URL:          w.URL,
		Name:         w.Name,
		FileID:       w.FileID,
		FileUniqueID: w.FileUniqueID,
		Size:         int64(rawFloat(w.Size)),
		Width:        int(rawFloat(w.Width)),
		Height:       int(rawFloat(w.Height)),
	}
	if a.Kind == "" {
		a.Kind = w.Type
	}
	if a.MIME == "" {
		a.MIME = w.ContentType
	}
	if a.URI == "" {
		a.URI = w.FilePath
	}
	if a.Name == "" {
		a.Name = w.FileName
	}
	return a
}

// rawString coerces a raw JSON value to a string: strings are unquoted,
// numbers keep their literal text, everything else is empty.
func rawString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// rawValue preserves a raw time value for later timeline parsing: strings
// verbatim, numbers as their literal text, everything else empty.
func rawValue(raw json.RawMessage) string {
	return rawString(raw)
}

// rawFloat coerces a raw JSON value to a number. Non-numeric present values
// coerce to 0.
func rawFloat(raw json.RawMessage) float64 {
	if raw == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// rawFlag evaluates the tri-state deletion flag: boolean true, numeric 1 or
// the case-insensitive string "true" count as set. The second return reports
// whether the flag was present at all.
func rawFlag(raw json.RawMessage) (bool, bool) {
	if raw == nil || string(raw) == "null" {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f == 1, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true"), true
	}
	return false, true
}
