package main

import "paysight/cmd"

func main() {
	cmd.Execute()
}
