package main

import "media54/cmd"

func main() {
	cmd.Execute()
}
