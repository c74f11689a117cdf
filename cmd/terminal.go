// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jcodagnone/geocontrol/control"
	"github.com/jcodagnone/geocontrol/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// terminalMap prints what a map widget would do.
type terminalMap struct {
	out  io.Writer
	next int
}

func (m *terminalMap) FitViewport(b spatial.Bounds) {
	fmt.Fprintf(m.out, "viewport\t%s\n", b)
}

func (m *terminalMap) PlaceMarker(center spatial.Point, label string) control.Marker {
	m.next++
	fmt.Fprintf(m.out, "marker #%d\t%s\t%s\n", m.next, center, label)

	return m.next
}

func (m *terminalMap) RemoveMarker(marker control.Marker) {
	fmt.Fprintf(m.out, "remove #%v\n", marker)
}

// terminalView shows busy state with a spinner and lists the alternatives.
type terminalView struct {
	out     io.Writer
	errOut  *os.File
	spinner bool

	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	stop    chan struct{}
	pending *control.Batch
}

func newTerminalView(out io.Writer, errOut *os.File) *terminalView {
	return &terminalView{
		out:     out,
		errOut:  errOut,
		spinner: isatty.IsTerminal(errOut.Fd()),
	}
}

func (v *terminalView) SetBusy(busy bool) {
	if !v.spinner {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if busy && v.bar == nil {
		v.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionSetWriter(v.errOut),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		v.stop = make(chan struct{})

		go spin(v.bar, v.stop)

		return
	}

	if !busy && v.bar != nil {
		close(v.stop)
		_ = v.bar.Finish()
		v.bar = nil
	}
}

func spin(bar *progressbar.ProgressBar, stop <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

func (v *terminalView) ShowError(message string) {
	fmt.Fprintln(v.errOut, message)
}

func (v *terminalView) ShowAlternatives(batch *control.Batch) {
	v.mu.Lock()
	v.pending = batch
	v.mu.Unlock()

	for i, r := range batch.Results() {
		fmt.Fprintf(v.out, "%3d\t%s\n", i+1, r.Name)
	}
}

func (v *terminalView) ClearResults() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pending = nil
}

// Pending returns the batch whose alternatives were listed last, if any.
func (v *terminalView) Pending() *control.Batch {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.pending
}
