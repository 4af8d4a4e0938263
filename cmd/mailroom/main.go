package main

import "github.com/aaronromeo/mailroom/internal/cli"

func main() {
	cli.Execute()
}
