// Command wnsched runs the scheduler of a single radio cell.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/wnsched/wnsched/cmd"
)

func main() {
	code := 0
	if err := cmd.Execute(); err != nil {
		code = 1
	}

	atexit.Exit(code)
}
