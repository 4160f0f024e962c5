package main

import "github.com/tunegrab/tunegrab/cmd"

func main() {
	cmd.Execute()
}
