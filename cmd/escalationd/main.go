package main

import "github.com/safenetai/escalation/cmd/escalationd/cmd"

func main() {
	cmd.Execute()
}
