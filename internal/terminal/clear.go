// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal holds small helpers for interactive prompts.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultWidth = 80

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal behind f, or 80 when unknown.
func Width(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// LinesUsed returns how many terminal lines textLength characters occupy at
// the given width, plus the line the cursor moved to after Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	n := (textLength + width - 1) / width
	if n < 1 {
		n = 1
	}
	return n + 1
}

// ClearPreviousLines erases a prompt and the answer typed after it.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	lines := LinesUsed(textLength, width)
	for i := 0; i < lines; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < lines-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}

// Prompt prints label to out, reads one line from in and, when out is a
// terminal, clears both so secrets typed at the prompt do not stay on screen.
// With hidden set and in a terminal, the input is not echoed.
func Prompt(in *os.File, out *os.File, label string, hidden bool) (string, error) {
	fmt.Fprint(out, label)

	var answer string
	if hidden && IsInteractive(in) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		answer = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read input: %w", err)
		}
		answer = line
	}
	answer = strings.TrimSpace(answer)

	if IsInteractive(out) {
		typed := len(answer)
		if hidden {
			typed = 0
		}
		ClearPreviousLines(out, len(label)+typed, Width(out))
	}
	return answer, nil
}
