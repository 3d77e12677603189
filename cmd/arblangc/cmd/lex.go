package cmd

import (
	"fmt"
	"os"

	"github.com/arblang/arblangc/internal/lexer"
	"github.com/spf13/cobra"
)

var (
	lexShowPos  bool
	lexShowType bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize an arblang mechanism file",
	Long: `Tokenize (lex) an arblang mechanism source file and print the
resulting tokens. Useful for debugging the lexer.`,
	Args: cobra.ExactArgs(1),
	RunE: lexMechanism,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&lexShowType, "show-type", false, "show token type names")
}

func lexMechanism(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	l := lexer.New(string(content))
	for {
		tok := l.NextToken()
		var out string
		if lexShowType {
			out = fmt.Sprintf("[%-12s]", tok.Type)
		}
		if tok.Literal == "" {
			out += fmt.Sprintf(" %s", tok.Type)
		} else {
			out += fmt.Sprintf(" %q", tok.Literal)
		}
		if lexShowPos {
			out += fmt.Sprintf(" @%d:%d", tok.Pos.Line, tok.Pos.Column)
		}
		fmt.Println(out)
		if tok.Type == lexer.EOF {
			break
		}
	}
	return nil
}
