package main

import (
	"os"

	"github.com/quickshow/quickshow/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		os.Exit(1)
	}
}
