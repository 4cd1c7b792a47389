package main

import "github.com/cryptodoc/cryptodoc-cli/cmd"

func main() {
	cmd.Execute()
}
