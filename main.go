package main

import "procsync/cmd"

func main() {
	cmd.Execute()
}
