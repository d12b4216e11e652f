package main

import "github.com/agentic-research/clsprobe/cmd"

func main() {
	cmd.Execute()
}
