package main

import (
	"snakearena/internal/cli"
)

func main() {
	cli.Execute()
}
