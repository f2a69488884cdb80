package projection

import (
	"strings"

	"github.com/strato-space/voicesync/internal/models"
)

const (
	// apiFilePrefix is the canonical API-rooted file path. URIs already
	// carrying it pass through unchanged.
	apiFilePrefix = "/api/files/"

	// shortFilePrefix is the legacy internal path; it is rewritten to the
	// canonical API-rooted form.
	shortFilePrefix = "/files/"

	// imageCaptionFallback captions image rows of messages without text.
	imageCaptionFallback = "Image"
)

// resolveAttachmentURI picks a usable URI for an attachment, in priority
// order direct URI, generic URI, URL, and normalizes known internal path
// prefixes. Returns "" when nothing resolves.
func resolveAttachmentURI(a models.Attachment) string {
	for _, candidate := range []string{a.DirectURI, a.URI, a.URL} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		return normalizeFileURI(candidate)
	}
	return ""
}

func normalizeFileURI(uri string) string {
	if strings.HasPrefix(uri, apiFilePrefix) {
		return uri
	}
	if strings.HasPrefix(uri, shortFilePrefix) {
		return apiFilePrefix + strings.TrimPrefix(uri, shortFilePrefix)
	}
	return uri
}

// imageRows extracts the message's own image rows. Attachments with no
// resolvable URI are discarded. The caption is the transcript text, else a
// literal placeholder.
func imageRows(m models.Message) []Row {
	id := m.Identity()
	caption := strings.TrimSpace(m.Transcript)
	if caption == "" {
		caption = imageCaptionFallback
	}

	var rows []Row
	for _, a := range m.Attachments {
		if !a.IsImage() {
			continue
		}
		uri := resolveAttachmentURI(a)
		if uri == "" {
			continue
		}
		rows = append(rows, Row{
			Kind:            RowImage,
			Text:            caption,
			ImageURI:        uri,
			ImageName:       a.Name,
			SourceMessageID: id,
		})
	}
	return rows
}

// linkedImages is one explicit image link resolved onto its target group.
type linkedImages struct {
	source string
	rows   []Row
}

// anchorIndex resolves image anchoring across the whole message list in one
// pass:
//   - own: identity -> that message's own image rows
//   - referenced: identities whose images surface in some other group, so the
//     image-bearing message itself is suppressed from standalone display
//   - linked: target identity -> explicit links declared by image-bearing
//     messages via the linked-message id
type anchorIndex struct {
	own        map[string][]Row
	referenced map[string]struct{}
	linked     map[string][]linkedImages
}

func buildAnchorIndex(messages []models.Message) anchorIndex {
	idx := anchorIndex{
		own:        make(map[string][]Row, len(messages)),
		referenced: make(map[string]struct{}),
		linked:     make(map[string][]linkedImages),
	}

	for _, m := range messages {
		id := m.Identity()
		if id == "" {
			continue
		}
		rows := imageRows(m)
		if len(rows) > 0 {
			idx.own[id] = rows
		}

		if anchor := strings.TrimSpace(m.AnchorMessageID); anchor != "" {
			idx.referenced[anchor] = struct{}{}
		}
		if target := strings.TrimSpace(m.AnchorLinkedMessageID); target != "" && len(rows) > 0 {
			idx.referenced[id] = struct{}{}
			idx.linked[target] = append(idx.linked[target], linkedImages{source: id, rows: rows})
		}
	}
	return idx
}

// suppressed reports whether the message must emit no standalone group: it
// owns image rows and some other message claims them through an anchor.
func (idx anchorIndex) suppressed(id string) bool {
	if len(idx.own[id]) == 0 {
		return false
	}
	_, ok := idx.referenced[id]
	return ok
}
