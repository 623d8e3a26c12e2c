package main

import "github.com/vedsharma/reqdesk/cmd"

func main() {
	cmd.Execute()
}
