package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, errBannedWords) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
