package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/textclean"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [text-file]",
	Short: "Clean raw OCR text against the dictionary",
	Long: `Read raw text from a file, or from stdin when the argument is "-" or
missing, and print the cleaned text: lowercase dictionary words separated by
single spaces.`,
	Example: `  # Clean a text file
  ocrsearch clean page.txt

  # Clean stdin and show what happened to each token
  echo "O CONTRATO de locaçao" | ocrsearch clean --stats --tokens`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().String("dictionary", "", "Word list file (default from DICTIONARY_PATH)")
	cleanCmd.Flags().Bool("stats", false, "Print token counters to stderr")
	cleanCmd.Flags().Bool("tokens", false, "Print what happened to each token to stderr")
}

func runClean(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("clean")

	cfg := *appConfig
	if v, _ := cmd.Flags().GetString("dictionary"); v != "" {
		cfg.DictionaryPath = v
	}
	showStats, _ := cmd.Flags().GetBool("stats")
	showTokens, _ := cmd.Flags().GetBool("tokens")

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	cleaner, err := createCleaner(&cfg, log)
	if err != nil {
		return describeError(err)
	}

	if showTokens {
		if err := writeTokenReport(cmd.ErrOrStderr(), cleaner, string(raw)); err != nil {
			return err
		}
	}

	cleaned, stats := cleaner.CleanWithStats(string(raw))
	fmt.Fprintln(cmd.OutOrStdout(), cleaned)

	if showStats {
		fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d kept: %d split: %d corrected: %d dropped: %d\n",
			stats.Total(), stats.Kept, stats.Split, stats.Corrected, stats.Dropped)
	}
	return nil
}

// writeTokenReport writes one line per token of text: the token, its outcome
// and the words it contributes.
func writeTokenReport(w io.Writer, cleaner *textclean.Cleaner, text string) error {
	for _, tok := range textclean.Tokenize(text) {
		words, outcome := cleaner.Classify(tok)
		line := fmt.Sprintf("%s\t%s", tok, outcome)
		if len(words) > 0 {
			line += "\t" + strings.Join(words, " ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
