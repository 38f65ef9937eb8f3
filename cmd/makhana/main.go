package main

import "makhana/cmd/makhana/commands"

func main() {
	commands.Execute()
}
