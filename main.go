package main

import "github.com/colinfo/colinfo/cmd"

func main() {
	cmd.Execute()
}
