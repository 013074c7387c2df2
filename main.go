package main

import (
	"log"

	"github.com/anoixa/photo-share/config"

	"github.com/anoixa/photo-share/cmd"
)

func main() {
	log.Printf("photo share %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
