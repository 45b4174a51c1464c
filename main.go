package main

import "github.com/naka-gawa/repolens/cmd"

func main() {
	cmd.Execute()
}
