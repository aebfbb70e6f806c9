package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// openInput returns stdin for no argument or "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(args[0])
}
