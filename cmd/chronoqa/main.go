package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/chronoqa/internal/cli"
	"github.com/ppiankov/chronoqa/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		if errors.Is(err, errors.ErrConfig) || errors.Is(err, errors.ErrTemplate) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
