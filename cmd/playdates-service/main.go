package main

import (
	"os"

	"github.com/psimmons86/playdates-server/playdatesservice"
)

func main() {
	if err := playdatesservice.Run(); err != nil {
		os.Exit(1)
	}
}
