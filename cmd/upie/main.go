package main

import (
	"fmt"
	"os"

	_ "github.com/mtibben/androiddnsfix"
	upload "github.com/nojima/httpie-upload"
)

func main() {
	if err := upload.Main(&upload.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
