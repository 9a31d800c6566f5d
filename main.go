package main

import "github.com/naka-gawa/pr-report/cmd"

func main() {
	cmd.Execute()
}
