package main

import "github.com/vaultsandbox/envelope-go/cmd/vsbseal/cmd"

func main() {
	cmd.Execute()
}
