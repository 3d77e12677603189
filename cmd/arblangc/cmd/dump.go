package cmd

import (
	"fmt"
	"os"

	"github.com/arblang/arblangc/internal/compiler"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Resolve an arblang mechanism and print its full IR structure",
	Long: `Parse and resolve an arblang mechanism source file and print the
resolved mechanism's complete field-by-field structure, for inspecting
how the resolver typed a declaration without wading through %#v output.`,
	Args: cobra.ExactArgs(1),
	RunE: dumpMechanism,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func dumpMechanism(_ *cobra.Command, args []string) error {
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
	fmt.Println(compiler.DumpIR(mech))
	return nil
}
