package main

import "github.com/vandelay/stratus/cmd"

func main() {
	cmd.Execute()
}
