package main

import "github.com/bizcopilot/copilot/internal/commands"

func main() {
	commands.Execute()
}
