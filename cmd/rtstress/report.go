package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// reporter prints scenario results, with glyphs on a terminal and plain
// words otherwise.
type reporter struct {
	w          io.Writer
	pass, fail string
}

func newReporter(w io.Writer) *reporter {
	r := &reporter{w: w, pass: "PASS", fail: "FAIL"}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.pass, r.fail = "✓", "✗"
	}
	return r
}

func (r *reporter) result(name string, err error) {
	if err != nil {
		fmt.Fprintf(r.w, "%s %s: %v\n", r.fail, name, err)
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", r.pass, name)
}

func (r *reporter) detail(format string, args ...any) {
	fmt.Fprintf(r.w, "    "+format+"\n", args...)
}
