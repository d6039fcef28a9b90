package main

import (
	"errors"
	"fmt"
	"os"

	"tock/internal/domain/task"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		var storeFault *task.StoreFault
		switch {
		case task.IsUserFault(err):
			fmt.Fprintln(os.Stderr, errorStyle(err.Error()))
			os.Exit(1)
		case errors.As(err, &storeFault):
			fmt.Fprintln(os.Stderr, errorStyle("system fault: "+err.Error()))
			os.Exit(2)
		default:
			fmt.Fprintln(os.Stderr, errorStyle(err.Error()))
			os.Exit(1)
		}
	}
}
