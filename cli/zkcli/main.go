package main

import (
	"log"

	"github.com/frankonly/zkmerkle/cli"
)

func main() {
	if err := cli.Init(); err != nil {
		log.Fatalf("failed to initialize zkcli: %v", err)
	}

	cli.Execute()
}
