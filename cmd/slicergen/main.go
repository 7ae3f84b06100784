package main

import (
	"os"
)

// buildVersion подставляется при сборке: -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra уже напечатал ошибку
		os.Exit(1)
	}
}
