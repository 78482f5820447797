package main

import "smoothies/cmd/smoothiectl/cmd"

func main() {
	cmd.Execute()
}
