package main

import "github.com/mselser95/polymarket-insights/cmd"

func main() {
	cmd.Execute()
}
