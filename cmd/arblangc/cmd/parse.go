package cmd

import (
	"fmt"
	"os"

	"github.com/arblang/arblangc/internal/compiler"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an arblang mechanism file and report its name",
	Long: `Parse (but do not resolve) an arblang mechanism source file. Reports
the declared mechanism name, or the first parse error.`,
	Args: cobra.ExactArgs(1),
	RunE: parseMechanism,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func parseMechanism(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	result, err := compiler.ParseOnly(string(content))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("parsing failed")
	}
	fmt.Printf("mechanism %s: OK\n", result.Name)
	return nil
}
