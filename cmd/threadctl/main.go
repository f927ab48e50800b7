package main

import "kisah-comments/cmd/threadctl/command"

func main() {
	command.Execute()
}
