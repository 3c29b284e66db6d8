package record

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteView renders rec for reading on a terminal: a short header followed by
// every page with its word count.
func WriteView(w io.Writer, rec *DocumentRecord) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Arquivo: %s\n", rec.Info.Filename)
	fmt.Fprintf(bw, "Data de Extração: %s\n", FormatTime(rec.Info.ExtractionDate))
	fmt.Fprintf(bw, "Total de Páginas: %d\n\n", rec.Info.TotalPages)

	for _, p := range rec.Pages {
		fmt.Fprintf(bw, "Página %d\n", p.PageNumber)
		fmt.Fprintf(bw, "Palavras: %d\n", p.WordCount)
		fmt.Fprintf(bw, "Conteúdo:\n%s\n", p.Content)
		fmt.Fprintf(bw, "%s\n\n", strings.Repeat("-", 50))
	}
	return bw.Flush()
}
