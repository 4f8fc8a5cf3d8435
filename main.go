package main

import "github.com/papapumpkin/flowlane/cmd"

func main() {
	cmd.Execute()
}
