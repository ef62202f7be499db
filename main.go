// Copyright © 2024 The vbalint authors

package main

import "github.com/luthersystems/vbalint/cmd"

func main() {
	cmd.Execute()
}
