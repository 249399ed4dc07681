package main

import "github.com/example/dmlog/cmd"

func main() {
	cmd.Execute()
}
