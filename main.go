package main

import "github.com/va6996/toolshed/cmd"

func main() {
	cmd.Execute()
}
