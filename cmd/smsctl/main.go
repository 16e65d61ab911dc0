package main

import "github.com/csmouse/csmouse/cmd/smsctl/cmd"

func main() {
	cmd.Execute()
}
