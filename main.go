package main

import (
	"log"

	"github.com/thiagokokada/autosquash-review/cmd"
	"github.com/thiagokokada/autosquash-review/internal/apperr"
)

func main() {
	if err := cmd.Run(); err != nil {
		if hint := apperr.HintOf(err); hint != "" {
			log.Fatalf("autosquash-review: %v\n%s", err, hint)
		}
		log.Fatalf("autosquash-review: %v", err)
	}
}
