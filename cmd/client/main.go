package main

import (
	"photobridge/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
