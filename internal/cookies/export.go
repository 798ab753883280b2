package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cookieport/cookieport/common"
	"github.com/cookieport/cookieport/internal/save"
	"github.com/cookieport/cookieport/pkg/logger"
)

// FormatVersion is the export file format version.
const FormatVersion = "1.0"

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Metadata describes an export.
type Metadata struct {
	Version      string `json:"version"`
	ExportedFrom string `json:"exportedFrom"`
	TotalCount   int    `json:"totalCount"`
}

// Payload is the export file content.
type Payload struct {
	Timestamp string    `json:"timestamp"`
	Cookies   []Record  `json:"cookies"`
	Metadata  *Metadata `json:"metadata"`
}

// NewPayload builds a payload for records taken at now.
func NewPayload(records []Record, now time.Time) *Payload {
	cookies := make([]Record, len(records))
	copy(cookies, records)
	return &Payload{
		Timestamp: FormatTimestamp(now),
		Cookies:   cookies,
		Metadata: &Metadata{
			Version:      FormatVersion,
			ExportedFrom: common.AppName,
			TotalCount:   len(cookies),
		},
	}
}

// Encode serializes p with two-space indentation.
func (p *Payload) Encode() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ExportFilename returns the suggested file name for an export stamped ts.
func ExportFilename(ts string) string {
	return "cookies_" + strings.NewReplacer(":", "-", ".", "-").Replace(ts) + ".json"
}

// ExportResult describes a completed export.
type ExportResult struct {
	Count    int
	Filename string
	// Location is where the saver put the file.
	Location string
	Message  string
}

// Exporter encodes cookie lists and hands them to a saver.
type Exporter struct {
	saver save.Saver
	now   func() time.Time
	log   logger.Logger
}

// NewExporter returns an Exporter saving through s. A nil now uses
// time.Now.
func NewExporter(s save.Saver, now func() time.Time, l logger.Logger) *Exporter {
	if now == nil {
		now = time.Now
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Exporter{saver: s, now: now, log: l}
}

// Export writes records as a new export file. A nil slice is rejected
// with ErrInvalidInput; an empty one produces an empty export.
func (e *Exporter) Export(ctx context.Context, records []Record) (*ExportResult, error) {
	if records == nil {
		return nil, fmt.Errorf("export: %w", ErrInvalidInput)
	}
	p := NewPayload(records, e.now())
	data, err := p.Encode()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	name := ExportFilename(p.Timestamp)
	loc, err := e.saver.Save(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	e.log.Info("exported %s to %s", countCookies(len(p.Cookies)), loc)
	return &ExportResult{
		Count:    len(p.Cookies),
		Filename: name,
		Location: loc,
		Message:  "exported " + countCookies(len(p.Cookies)),
	}, nil
}

// countCookies formats n with the singular or plural noun.
func countCookies(n int) string {
	if n == 1 {
		return "1 cookie"
	}
	return fmt.Sprintf("%d cookies", n)
}
