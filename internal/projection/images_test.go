package projection

import (
	"testing"

	"github.com/strato-space/voicesync/internal/models"
)

func TestResolveAttachmentURIPriority(t *testing.T) {
	a := models.Attachment{DirectURI: "/api/files/d.png", URI: "/files/u.png", URL: "https://x/e.png"}
	if got := resolveAttachmentURI(a); got != "/api/files/d.png" {
		t.Fatalf("direct uri must win: %q", got)
	}
	a.DirectURI = ""
	if got := resolveAttachmentURI(a); got != "/api/files/u.png" {
		t.Fatalf("generic uri next, normalized: %q", got)
	}
	a.URI = ""
	if got := resolveAttachmentURI(a); got != "https://x/e.png" {
		t.Fatalf("url last, passed through: %q", got)
	}
	a.URL = ""
	if got := resolveAttachmentURI(a); got != "" {
		t.Fatalf("unresolvable attachment: %q", got)
	}
}

func TestImageRowsFiltersAndCaptions(t *testing.T) {
	m := models.Message{
		LogicalID: "m-1",
		Attachments: []models.Attachment{
			{MIME: "image/png", URI: "/files/a.png"},
			{MIME: "application/pdf", URI: "/files/doc.pdf"},
			{Kind: "image"}, // no URI: discarded
		},
	}
	rows := imageRows(m)
	if len(rows) != 1 {
		t.Fatalf("expected 1 image row, got %d", len(rows))
	}
	if rows[0].Text != "Image" {
		t.Fatalf("caption fallback: %q", rows[0].Text)
	}

	m.Transcript = "the chart"
	rows = imageRows(m)
	if rows[0].Text != "the chart" {
		t.Fatalf("caption from transcript text: %q", rows[0].Text)
	}

	// Free text is not a caption source; without a transcript the
	// placeholder applies.
	m.Transcript = ""
	m.Text = "unrelated note"
	rows = imageRows(m)
	if rows[0].Text != "Image" {
		t.Fatalf("caption must fall back past free text: %q", rows[0].Text)
	}
}
