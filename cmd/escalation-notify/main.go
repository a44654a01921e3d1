package main

import "github.com/safenetai/escalation/cmd/escalation-notify/cmd"

func main() {
	cmd.Execute()
}
