package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/gaurav-prasanna/docrows/cmd"
)

func main() {
	cmd.Execute()
}
