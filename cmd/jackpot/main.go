package main

import "github.com/vietddude/jackpot/internal/cli"

func main() {
	cli.Execute()
}
