package main

import "bpi-tracker/internal/cli"

func main() {
	cli.Execute()
}
