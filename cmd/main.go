package main

import (
	"os"

	"github.com/soundprediction/docsim/cmd/docsim"
)

func main() {
	if err := docsim.Execute(); err != nil {
		os.Exit(1)
	}
}
