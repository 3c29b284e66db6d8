package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// TimeLayout is the layout extraction dates are written in.
const TimeLayout = time.RFC3339

// Older sidecars carry naive local timestamps without a zone.
var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTime parses an extraction date in any of the accepted layouts. Naive
// timestamps are read in the local zone.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized extraction date %q", s)
}

// FormatTime formats an extraction date for a sidecar.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

type infoJSON struct {
	Filename       string `json:"filename"`
	Path           string `json:"path"`
	ExtractionDate string `json:"extraction_date"`
	TotalPages     int    `json:"total_pages"`
}

// MarshalJSON writes the extraction date with TimeLayout.
func (i Info) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(infoJSON{
		Filename:       i.Filename,
		Path:           i.Path,
		ExtractionDate: FormatTime(i.ExtractionDate),
		TotalPages:     i.TotalPages,
	})
	return bytes.TrimRight(buf.Bytes(), "\n"), err
}

// UnmarshalJSON accepts every layout ParseTime does.
func (i *Info) UnmarshalJSON(data []byte) error {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseTime(raw.ExtractionDate)
	if err != nil {
		return err
	}
	*i = Info{
		Filename:       raw.Filename,
		Path:           raw.Path,
		ExtractionDate: t,
		TotalPages:     raw.TotalPages,
	}
	return nil
}

// WriteJSON encodes rec with four-space indentation and without escaping
// non-ASCII or HTML characters.
func WriteJSON(w io.Writer, rec *DocumentRecord) error {
	const op = "WriteJSON"

	if err := rec.Validate(); err != nil {
		return err
	}

	out := *rec
	if out.Pages == nil {
		out.Pages = []PageRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return WrapRecordError(op, err, rec.Info.Filename)
	}
	return nil
}

// ReadJSON decodes and validates a JSON sidecar.
func ReadJSON(r io.Reader) (*DocumentRecord, error) {
	const op = "ReadJSON"

	var rec DocumentRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, WrapRecordError(op, err, "decode")
	}
	if rec.Pages == nil {
		rec.Pages = []PageRecord{}
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}
