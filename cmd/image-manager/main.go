package main

import (
	"fmt"
	"os"

	imagemanager "github.com/renloe/image-manager"
)

func main() {
	if err := imagemanager.RunCmd(os.Args, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
