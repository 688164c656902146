package main

import "nathanbeddoewebdev/tsm/cmd"

func main() {
	cmd.Execute()
}
