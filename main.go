package main

import "github.com/ABH36/Machine-test/cmd"

func main() {
	cmd.Execute()
}
