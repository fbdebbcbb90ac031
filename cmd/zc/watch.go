package main

import (
	"fmt"

	"github.com/peterh/liner"

	"github.com/zc-lang/zc/internal/config"
)

// watchCheck re-runs runCheck every time the user presses enter at a
// line prompt, instead of once, grounded on internal/repl.REPL.Start's
// liner-backed read loop (github.com/peterh/liner, already the
// teacher's line-editing dependency).
func watchCheck(path string, cfg *config.Config) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	fmt.Printf("watching %s — press enter to re-check, Ctrl-D to quit\n", path)
	for {
		_, err := line.Prompt("zc check> ")
		if err != nil {
			fmt.Println()
			return
		}
		runCheck(path, cfg)
	}
}
