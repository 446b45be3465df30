package main

import "github.com/jmcleod/tokenvault/cmd/tokenvault/cmd"

func main() {
	cmd.Execute()
}
