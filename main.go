package main

import "github.com/Tiliavir/ghosttrack/cmd"

func main() {
	cmd.Execute()
}
