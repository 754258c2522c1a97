package main

import "github.com/kamusis/sight-cli/cmd"

func main() {
	cmd.Execute()
}
