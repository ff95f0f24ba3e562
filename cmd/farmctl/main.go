// Command farmctl is the operator tool for the unicorn farm: schema migration,
// demo data, unicorn administration and purchase event tailing.
package main

import "unicornfarm/cmd/farmctl/commands"

func main() {
	commands.Execute()
}
