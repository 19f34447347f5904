// Package main is the entry point for the MedConnect assistant.
package main

import (
	"medconnect/agent/cmd"
)

func main() {
	cmd.Execute()
}
