package main

import (
	"fmt"
	"os"

	"scrapeflow/presentation/cli"
)

func main() {
	iface, err := cli.NewCLIInterface()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer iface.Close()

	if err := iface.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

