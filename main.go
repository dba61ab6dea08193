package main

import "github.com/koruva/devkit/cmd"

func main() {
	cmd.Execute()
}
