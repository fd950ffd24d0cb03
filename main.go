package main

import "github.com/tanq16/accel/cmd"

func main() {
	cmd.Execute()
}
