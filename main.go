package main

import (
	"os"

	"github.com/hoybrett99/StudyBuddy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
