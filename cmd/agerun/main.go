package main

import (
	"os"

	"github.com/agerun/agerun/cmd/agerun/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
