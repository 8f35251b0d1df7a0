// Command fdgo is a fast, parallel alternative to find.
package main

import "github.com/TFMV/fdgo/cmd"

func main() {
	cmd.Execute()
}
