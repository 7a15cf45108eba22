package main

import (
	"chartink-gateway/internal/cli"
)

func main() {
	cli.Execute()
}
