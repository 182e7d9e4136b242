package main

import (
	_ "time/tzdata"

	"github.com/npepeverse/pepebot/cmd"
)

func main() {
	cmd.Execute()
}
