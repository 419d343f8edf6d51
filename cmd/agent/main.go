package main

import "github.com/framecut/framecut-agent/internal/cli"

func main() {
	cli.Execute()
}
