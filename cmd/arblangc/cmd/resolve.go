package cmd

import (
	"fmt"
	"os"

	"github.com/arblang/arblangc/internal/compiler"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Parse and resolve an arblang mechanism file",
	Long: `Parse and resolve (but do not optimize, solve, or emit) an arblang
mechanism source file. Reports the resolved mechanism's kind, state, and
parameter counts, or the first resolver error.`,
	Args: cobra.ExactArgs(1),
	RunE: resolveMechanism,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func resolveMechanism(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	mech, err := compiler.ResolveOnly(string(content), filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("resolution failed")
	}
	fmt.Printf("mechanism %s (%s): %d states, %d parameters, %d effects\n",
		mech.Name, mech.Kind, len(mech.States), len(mech.Parameters), len(mech.Effects))
	return nil
}
