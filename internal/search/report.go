package search

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"ocrsearch/internal/index"
)

var reportRule = strings.Repeat("-", 50)

// WriteReport writes hits in the search_results.txt layout.
func WriteReport(w io.Writer, term string, hits []index.Hit) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Search Results for: %s\n", term)
	fmt.Fprintf(bw, "%s\n\n", reportRule)

	for _, h := range hits {
		fmt.Fprintf(bw, "Title: %s\n", h.Title)
		fmt.Fprintf(bw, "Path: %s\n", h.PDFPath)
		fmt.Fprintf(bw, "Relevant excerpt: %s\n", h.Excerpt)
		fmt.Fprintf(bw, "%s\n\n", reportRule)
	}

	return bw.Flush()
}
