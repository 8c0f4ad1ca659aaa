package main

import "Travel_Companion/client/companion-cli/cmd"

func main() {
	cmd.Execute()
}
