// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package progress

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

var stageLabels = map[string]string{
	"classified": "Understanding the request",
	"generated":  "Drafting the query",
	"validated":  "Checking the query",
	"reading":    "Reading from the database",
	"writing":    "Writing to the database",
	"responded":  "Composing the answer",
}

// Label returns the human label for a pipeline state.
func Label(state string) string {
	if l, ok := stageLabels[state]; ok {
		return l
	}
	return state
}

// Renderer prints pipeline events to the terminal, one line per stage. Lines
// start with a carriage return so they overwrite an inline spinner.
type Renderer struct {
	out     io.Writer
	verbose bool
	state   RenderState
}

// NewRenderer creates a renderer writing to out. When verbose is false only
// degraded stages are printed.
func NewRenderer(out io.Writer, verbose bool) *Renderer {
	return &Renderer{out: out, verbose: verbose}
}

// Render processes a single event.
func (r *Renderer) Render(ev Event) {
	switch ev.Type {
	case EventStage:
		if !r.verbose {
			return
		}
		line := fmt.Sprintf("%s %s", pterm.FgGreen.Sprint("✓"), Label(ev.To))
		if ev.To == "classified" && ev.Intent != "" {
			line += pterm.FgGray.Sprintf(" (%s)", ev.Intent)
		}
		r.state.IncrementFrame()
		fmt.Fprint(r.out, "\r"+r.state.FormatLine(line)+"\n")
	case EventDegraded:
		line := fmt.Sprintf("%s %s: %s", pterm.FgYellow.Sprint("!"), Label(ev.From), ev.Message)
		fmt.Fprint(r.out, "\r"+r.state.FormatLine(line)+"\n")
	case EventStarted, EventFinished:
		// The answer is printed by the caller.
	}
}
