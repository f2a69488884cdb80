package models

import "testing"

func TestDecodeMessagePatch_CurrentShape(t *testing.T) {
	data := []byte(`{
		"message_id": "m-1",
		"id": 42,
		"timestamp": "120.5",
		"is_deleted": false,
		"text": "hello",
		"voice_text": "hello there",
		"transcription": [
			{"id": "chunk-1", "start": 0, "end": "00:05", "speaker": "Alice", "text": "hi"}
		],
		"categorization": [
			{"start": "1", "end": 3, "speaker": "Alice", "text": "greeting", "goal": "g"}
		],
		"attachments": [
			{"kind": "image", "mime_type": "image/png", "uri": "/files/a.png", "name": "a.png"}
		],
		"image_anchor_message_id": "m-0",
		"processing": {"summarize": {"summary": "a chat"}}
	}`)

	p, err := DecodeMessagePatch(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.LogicalID != "m-1" || p.StorageID != "42" {
		t.Fatalf("ids: %q %q", p.LogicalID, p.StorageID)
	}
	if p.Timestamp == nil || *p.Timestamp != 120.5 {
		t.Fatalf("timestamp: %v", p.Timestamp)
	}
	if p.Deleted == nil || *p.Deleted {
		t.Fatalf("deleted: %v", p.Deleted)
	}
	if len(p.Segments) != 1 || p.Segments[0].ID != "chunk-1" || p.Segments[0].End != "00:05" {
		t.Fatalf("segments: %+v", p.Segments)
	}
	if !p.Segments[0].Editable() {
		t.Fatal("chunk segment should be editable")
	}
	if len(p.Categories) != 1 || p.Categories[0].Start != "1" || p.Categories[0].End != "3" {
		t.Fatalf("categories: %+v", p.Categories)
	}
	if len(p.Attachments) != 1 || !p.Attachments[0].IsImage() {
		t.Fatalf("attachments: %+v", p.Attachments)
	}
	if p.AnchorMessageID == nil || *p.AnchorMessageID != "m-0" {
		t.Fatalf("anchor: %v", p.AnchorMessageID)
	}
	if p.Processing["summarize"].Summary != "a chat" {
		t.Fatalf("processing: %+v", p.Processing)
	}
}

func TestDecodeMessagePatch_LegacyShapes(t *testing.T) {
	data := []byte(`{
		"message_id": "m-2",
		"transcription": [
			{"chunk_id": "seg-9", "from": "5", "to": "9", "speaker_name": "Bob", "content": "legacy", "deleted": 1}
		],
		"attachments": [
			{"type": "image", "content_type": "image/jpeg", "file_path": "/files/b.jpg", "file_name": "b.jpg"}
		]
	}`)

	p, err := DecodeMessagePatch(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	seg := p.Segments[0]
	if seg.ID != "seg-9" || seg.Start != "5" || seg.End != "9" || seg.Speaker != "Bob" || seg.Text != "legacy" {
		t.Fatalf("legacy segment: %+v", seg)
	}
	if !seg.Deleted {
		t.Fatal("numeric 1 deleted flag should be set")
	}
	if seg.Editable() {
		t.Fatal("non-chunk segment must be display-only")
	}
	a := p.Attachments[0]
	if a.Kind != "image" || a.MIME != "image/jpeg" || a.URI != "/files/b.jpg" || a.Name != "b.jpg" {
		t.Fatalf("legacy attachment: %+v", a)
	}
}

func TestDecodeMessagePatch_AbsentFieldsStayNil(t *testing.T) {
	p, err := DecodeMessagePatch([]byte(`{"message_id": "m-3"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Timestamp != nil || p.Deleted != nil || p.Text != nil || p.Segments != nil ||
		p.Categories != nil || p.Attachments != nil || p.Processing != nil {
		t.Fatalf("expected absent fields to stay nil: %+v", p)
	}
}

func TestRawFlagTriState(t *testing.T) {
	tests := []struct {
		raw         string
		want, wantP bool
	}{
		{`true`, true, true},
		{`false`, false, true},
		{`1`, true, true},
		{`0`, false, true},
		{`2`, false, true},
		{`"true"`, true, true},
		{`"TRUE"`, true, true},
		{`"True "`, true, true},
		{`"yes"`, false, true},
		{`null`, false, false},
		{`{}`, false, true},
	}
	for _, tc := range tests {
		got, present := rawFlag([]byte(tc.raw))
		if got != tc.want || present != tc.wantP {
			t.Fatalf("rawFlag(%s) = (%v, %v), want (%v, %v)", tc.raw, got, present, tc.want, tc.wantP)
		}
	}
}

func TestDecodeMessagePatch_NonNumericTimestampCoercesToZero(t *testing.T) {
	p, err := DecodeMessagePatch([]byte(`{"message_id": "m", "timestamp": "noon"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Timestamp == nil || *p.Timestamp != 0 {
		t.Fatalf("timestamp: %v", p.Timestamp)
	}
}
