package main

import "muse-workers/internal/cli"

func main() {
	cli.Execute()
}
