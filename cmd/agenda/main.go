package main

import "github.com/Togather-Foundation/agenda/cmd/agenda/cmd"

func main() {
	cmd.Execute()
}
