package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax/python"
)

// stdinPath selects standard input as the source.
const stdinPath = "-"

func newTreeCommand(_ *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the syntax tree of a Python file",
		Long:  `Tree parses FILE, or standard input when FILE is "-", and prints its syntax tree.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeFormat, err := syntax.ParseFormat(format)
			if err != nil {
				return usageError(err)
			}

			path := args[0]

			content, err := readSource(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			if path == stdinPath {
				path = ""
			}

			module, err := python.NewParser().Parse(cmd.Context(), path, content)
			if err != nil {
				return err
			}

			return syntax.Encode(cmd.OutOrStdout(), module, treeFormat)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(syntax.FormatJSON), "tree format: json or yaml")

	return cmd
}

func readSource(stdin io.Reader, path string) ([]byte, error) {
	if path == stdinPath {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return content, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return content, nil
}
