package main

import "github.com/iksnae/gamehelp/cmd"

func main() {
	cmd.Execute()
}
