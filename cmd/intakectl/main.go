package main

import (
	"github.com/subosito/gotenv"
)

func main() {
	// .env is optional
	_ = gotenv.Load()

	Execute()
}
