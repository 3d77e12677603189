package cmd

import (
	"fmt"
	"os"

	"github.com/arblang/arblangc/internal/compiler"
	"github.com/arblang/arblangc/internal/config"
	"github.com/spf13/cobra"
)

var (
	outputPrefix    string
	namespace       string
	dumpDescriptor  bool
	compileVerbose  bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile an arblang mechanism to PPACK-ABI C++ sources",
	Long: `Compile an arblang mechanism source file into a <prefix>.hpp/<prefix>.cpp
pair implementing the Arbor mechanism ABI.

Examples:
  # Compile a mechanism to out.hpp/out.cpp under namespace "demo"
  arblangc compile leak.arblang -o out -N demo

  # Additionally print the resolved state/parameter/ion descriptor as JSON
  arblangc compile leak.arblang -o out -N demo --dump-descriptor`,
	Args: cobra.ExactArgs(1),
	RunE: compileMechanism,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputPrefix, "output", "o", "", "output file prefix (required)")
	compileCmd.Flags().StringVarP(&namespace, "namespace", "N", "", "generated C++ namespace (required)")
	compileCmd.Flags().BoolVar(&dumpDescriptor, "dump-descriptor", false, "print the resolved descriptor as JSON")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "verbose output")
}

func compileMechanism(_ *cobra.Command, args []string) error {
	filename := args[0]

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	opts := &config.Options{
		InputFile:      filename,
		OutputPrefix:   outputPrefix,
		Namespace:      namespace,
		DumpDescriptor: dumpDescriptor,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Compiling %s (namespace %s)...\n", filename, opts.Namespace)
	}

	out, err := compiler.Compile(string(content), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("compilation failed")
	}

	hppPath := opts.OutputPrefix + ".hpp"
	cppPath := opts.OutputPrefix + ".cpp"
	if err := os.WriteFile(hppPath, []byte(out.Header), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", hppPath, err)
	}
	if err := os.WriteFile(cppPath, []byte(out.Body), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cppPath, err)
	}

	if out.Descriptor != "" {
		fmt.Println(out.Descriptor)
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Wrote %s, %s\n", hppPath, cppPath)
	} else {
		fmt.Printf("Compiled %s -> %s, %s\n", filename, hppPath, cppPath)
	}

	return nil
}
