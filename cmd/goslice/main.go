package main

import "github.com/philipparndt/goslice/internal/cmd"

func main() {
	cmd.Parse()
}
