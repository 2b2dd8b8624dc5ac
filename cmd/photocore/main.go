package main

import "github.com/MeKo-Tech/photocore/internal/cmd"

func main() {
	cmd.Execute()
}
