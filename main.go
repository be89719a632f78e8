package main

import (
	"harvestq.com/harvestq/cmd"
)

func main() {
	cmd.Execute()
}
