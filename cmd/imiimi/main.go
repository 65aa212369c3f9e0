package main

import (
	"log"

	"github.com/codealamode/imiimi/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("imiimi failed to start: %v", err)
	}
}
