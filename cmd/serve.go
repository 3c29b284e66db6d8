package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocrsearch/internal/httpapi"
	"ocrsearch/internal/index"
	"ocrsearch/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search index over HTTP",
	Long: `Start an HTTP server on HTTP_ADDR (or --addr) exposing the index of a folder:

  GET /api/documents        indexed documents
  GET /api/documents/<pdf>  record of one PDF
  GET /api/search?q=&limit= ranked hits
  GET /healthz              health check

The server stops gracefully on SIGINT or SIGTERM.`,
	Example: `  ocrsearch serve --dir ./scans --addr :9090`,
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("dir", ".", "Folder with the records and the index")
	serveCmd.Flags().String("addr", "", "Listen address (default from HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	dir, _ := cmd.Flags().GetString("dir")
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = appConfig.HTTPAddr
	}

	idx, err := index.Open(indexPath(appConfig, dir))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	ctx, cancel := createContextWithTimeout(0, log)
	defer cancel()

	return httpapi.NewServer(idx, appConfig.SearchLimit).Run(ctx, addr)
}
