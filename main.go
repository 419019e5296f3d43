package main

import "daoforge/internal/cli"

func main() {
	cli.Execute()
}
