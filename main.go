package main

import (
	"fmt"
	"os"

	"github.com/dbxquery/dbxquery/cmd"
)

func main() {
	if err := cmd.Command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
