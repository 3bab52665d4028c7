// Package transfer maps the link collection to and from backup files:
// the LinkHub JSON format and Netscape bookmark HTML.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nikbrunner/linkhub/internal/model"
)

// DefaultFilename is the suggested name for a JSON backup.
const DefaultFilename = "linkhub_backup.json"

// ImportParseError reports one array element that could not be imported.
type ImportParseError struct {
	Index  int
	Reason string
}

func (e *ImportParseError) Error() string {
	return fmt.Sprintf("element %d: %s", e.Index, e.Reason)
}

// exportRecord fixes the key order of exported objects.
type exportRecord struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Category   string `json:"category"`
	IsFavorite bool   `json:"isFavorite"`
	ClickCount int    `json:"clickCount"`
	CreatedAt  int64  `json:"createdAt"`
	LastOpened int64  `json:"lastOpened"`
	Notes      string `json:"notes"`
	FaviconURL string `json:"faviconUrl"`
}

// ExportJSON encodes links as a JSON array with 2-space indentation.
func ExportJSON(links []model.Link) ([]byte, error) {
	records := make([]exportRecord, 0, len(links))
	for _, l := range links {
		records = append(records, exportRecord{
			ID:         l.ID,
			Title:      l.Title,
			URL:        l.URL,
			Category:   l.Category,
			IsFavorite: l.IsFavorite,
			ClickCount: l.ClickCount,
			CreatedAt:  l.CreatedAt,
			LastOpened: l.LastOpened,
			Notes:      l.Notes,
			FaviconURL: l.FaviconURL,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode links: %w", err)
	}
	return buf.Bytes(), nil
}

// importRecord distinguishes absent fields from zero values.
type importRecord struct {
	Title      *string `json:"title"`
	URL        *string `json:"url"`
	Category   *string `json:"category"`
	IsFavorite *bool   `json:"isFavorite"`
	ClickCount *int    `json:"clickCount"`
	CreatedAt  *int64  `json:"createdAt"`
	LastOpened *int64  `json:"lastOpened"`
	Notes      *string `json:"notes"`
	FaviconURL *string `json:"faviconUrl"`
}

// ParseJSON decodes a backup. Elements that are not objects, lack a
// usable title or url, or carry negative counters or timestamps are
// skipped and reported as *ImportParseError.
// Any id in the document is discarded. A link without createdAt keeps
// zero, which the repository replaces with the insert time.
//
// A document that is not a JSON array returns a single error and no links.
func ParseJSON(data []byte) ([]model.Link, []error, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, nil, fmt.Errorf("parse backup: %w", err)
	}

	links := []model.Link{}
	var skipped []error
	for i, raw := range elements {
		link, err := parseElement(raw)
		if err != nil {
			skipped = append(skipped, &ImportParseError{Index: i, Reason: err.Error()})
			continue
		}
		links = append(links, link)
	}
	return links, skipped, nil
}

func parseElement(raw json.RawMessage) (model.Link, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.Link{}, fmt.Errorf("not an object")
	}

	var rec importRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return model.Link{}, err
	}

	switch {
	case rec.Title == nil:
		return model.Link{}, fmt.Errorf("missing title")
	case strings.TrimSpace(*rec.Title) == "":
		return model.Link{}, fmt.Errorf("blank title")
	case rec.URL == nil:
		return model.Link{}, fmt.Errorf("missing url")
	case !model.HasValidScheme(*rec.URL):
		return model.Link{}, fmt.Errorf("invalid url %q", *rec.URL)
	case rec.ClickCount != nil && *rec.ClickCount < 0:
		return model.Link{}, fmt.Errorf("negative clickCount")
	case rec.CreatedAt != nil && *rec.CreatedAt < 0:
		return model.Link{}, fmt.Errorf("negative createdAt")
	case rec.LastOpened != nil && *rec.LastOpened < 0:
		return model.Link{}, fmt.Errorf("negative lastOpened")
	}

	link := model.Link{
		Title:    *rec.Title,
		URL:      *rec.URL,
		Category: model.DefaultCategory,
	}
	if rec.Category != nil {
		link.Category = *rec.Category
	}
	if rec.IsFavorite != nil {
		link.IsFavorite = *rec.IsFavorite
	}
	if rec.ClickCount != nil {
		link.ClickCount = *rec.ClickCount
	}
	if rec.CreatedAt != nil {
		link.CreatedAt = *rec.CreatedAt
	}
	if rec.LastOpened != nil {
		link.LastOpened = *rec.LastOpened
	}
	if rec.Notes != nil {
		link.Notes = *rec.Notes
	}
	if rec.FaviconURL != nil {
		link.FaviconURL = *rec.FaviconURL
	}
	return link, nil
}

// Inserter stores one new link. *repository.Repository and
// repository.BlockingWriter implement it.
type Inserter interface {
	Insert(ctx context.Context, link model.Link) (model.Link, error)
}

// Summary counts the outcome of an import.
type Summary struct {
	Imported int
	Skipped  int
	Errors   []error
}

// Import inserts each link as a new record. Parse errors and failed inserts
// both count as skipped. Inserts are independent: if ctx is canceled the
// links already inserted stay, and ctx's error is returned.
func Import(ctx context.Context, ins Inserter, links []model.Link, parseErrs []error) (Summary, error) {
	summary := Summary{
		Skipped: len(parseErrs),
		Errors:  append([]error(nil), parseErrs...),
	}

	for _, l := range links {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		l.ID = 0
		if _, err := ins.Insert(ctx, l); err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Errorf("%q: %w", l.URL, err))
			continue
		}
		summary.Imported++
	}
	return summary, nil
}
