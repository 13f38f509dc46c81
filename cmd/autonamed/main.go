package main

import (
	"context"
	"errors"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("autonamed: ")
	if err := newDaemonCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
