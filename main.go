package main

import (
	"log"

	"yashubustudio/healthguard/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("healthguard: %v", err)
	}
}
