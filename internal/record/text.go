package record

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	documentPrefix = "Document: "
	datePrefix     = "Extraction Date: "
	pagePrefix     = "Page "
)

var (
	headerRule = strings.Repeat("-", 80)
	pageRule   = strings.Repeat("-", 40)
)

// WriteText writes the human-readable sidecar:
//
//	Document: <filename>
//	Extraction Date: <date>
//	<80 dashes>
//
//	Page <n>
//	<40 dashes>
//	<content>
//
// with one blank line after every page.
func WriteText(w io.Writer, rec *DocumentRecord) error {
	const op = "WriteText"

	if err := rec.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s%s\n", documentPrefix, rec.Info.Filename)
	fmt.Fprintf(bw, "%s%s\n", datePrefix, FormatTime(rec.Info.ExtractionDate))
	fmt.Fprintf(bw, "%s\n\n", headerRule)

	for _, p := range rec.Pages {
		fmt.Fprintf(bw, "%s%d\n", pagePrefix, p.PageNumber)
		fmt.Fprintf(bw, "%s\n", pageRule)
		bw.WriteString(p.Content)
		bw.WriteString("\n\n")
	}

	if err := bw.Flush(); err != nil {
		return WrapRecordError(op, err, rec.Info.Filename)
	}
	return nil
}

// ReadText parses a text sidecar. The text layout carries neither the PDF
// path nor the page total: pdfPath is stored as given and TotalPages is the
// last page number. Word counts are recomputed.
func ReadText(r io.Reader, pdfPath string) (*DocumentRecord, error) {
	const op = "ReadText"

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, WrapRecordError(op, err, pdfPath)
	}

	if len(lines) < 3 ||
		!strings.HasPrefix(lines[0], documentPrefix) ||
		!strings.HasPrefix(lines[1], datePrefix) ||
		lines[2] != headerRule {
		return nil, WrapRecordError(op, ErrMalformedText, "missing header")
	}

	date, err := ParseTime(strings.TrimPrefix(lines[1], datePrefix))
	if err != nil {
		return nil, WrapRecordError(op, ErrMalformedText, err.Error())
	}

	rec := &DocumentRecord{
		Info: Info{
			Filename:       strings.TrimPrefix(lines[0], documentPrefix),
			Path:           pdfPath,
			ExtractionDate: date,
		},
		Pages: []PageRecord{},
	}

	var (
		current int
		body    []string
	)
	flush := func() {
		if current == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(body, "\n"), "\n")
		rec.Pages = append(rec.Pages, NewPageRecord(current, content))
		current, body = 0, nil
	}

	for i := 3; i < len(lines); i++ {
		if n, ok := pageHeader(lines, i); ok {
			flush()
			current = n
			i++ // skip the rule
			continue
		}
		if current == 0 {
			if strings.TrimSpace(lines[i]) != "" {
				return nil, WrapRecordError(op, ErrMalformedText, fmt.Sprintf("unexpected line %d", i+1))
			}
			continue
		}
		body = append(body, lines[i])
	}
	flush()

	if n := len(rec.Pages); n > 0 {
		rec.Info.TotalPages = rec.Pages[n-1].PageNumber
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// pageHeader reports whether lines[i] opens a page block.
func pageHeader(lines []string, i int) (int, bool) {
	if i+1 >= len(lines) || lines[i+1] != pageRule || !strings.HasPrefix(lines[i], pagePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(lines[i], pagePrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}
