package main

import "github.com/alejoacosta74/kafka-publisher/cmd"

func main() {
	cmd.Execute()
}
