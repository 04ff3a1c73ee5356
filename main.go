package main

import "github.com/KaramelBytes/dqboard/cmd"

func main() {
	cmd.Execute()
}
