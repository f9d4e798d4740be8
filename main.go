package main

import (
	"example.com/logistics/services/tracking/cmd"
)

func main() {
	cmd.Execute()
}
