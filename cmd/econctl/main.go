package main

import (
	"fmt"
	"os"

	"github.com/Curisan/anthropic-econ-index/cmd/econctl/commands"
)

func main() {
	if err := commands.NewRootCmd(commands.Connect).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
