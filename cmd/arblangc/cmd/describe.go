package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var describeCmd = &cobra.Command{
	Use:   "describe [descriptor.json] [path]",
	Short: "Query a field out of a dumped mechanism descriptor",
	Long: `Read a descriptor JSON document previously written by
"compile --dump-descriptor" and print the value at the given gjson
path (e.g. "parameters.0.name" or "states").`,
	Args: cobra.ExactArgs(2),
	RunE: describeDescriptor,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func describeDescriptor(_ *cobra.Command, args []string) error {
	filename, path := args[0], args[1]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read descriptor %s: %w", filename, err)
	}

	result := gjson.GetBytes(content, path)
	if !result.Exists() {
		return fmt.Errorf("path %q not found in %s", path, filename)
	}
	fmt.Println(result.String())
	return nil
}
