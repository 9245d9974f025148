package main

import "github.com/sitekit/sitekit/internal/cli"

func main() {
	cli.Execute()
}
