package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var redactCmd = &cobra.Command{
	Use:   "redact [text]",
	Short: "Redact sensitive values from text",
	Long: `Run the security filter standalone. Reads from the argument or,
when none is given, from stdin. The redacted text goes to stdout and the
redaction count to stderr.

Examples:
  lore redact "api_key=sk-abcdef1234567890abcdef1234567890"
  cat notes.txt | lore redact`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRedact,
}

func init() {
	rootCmd.AddCommand(redactCmd)
}

func runRedact(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	redacted, count := newRedactor().RedactCount(text)
	fmt.Println(strings.TrimRight(redacted, "\n"))
	fmt.Fprintf(os.Stderr, "%d redaction(s)\n", count)
	return nil
}
