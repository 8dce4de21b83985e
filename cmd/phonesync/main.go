package main

import (
	"fmt"
	"os"

	"PhoneSync/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "phonesync: %v\n", err)
		os.Exit(1)
	}
}
