package main

import "github.com/MeKo-Tech/bartune/cmd/bartune/cmd"

func main() {
	cmd.Execute()
}
