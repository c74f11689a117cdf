// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/geocontrol/control"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var geocodeSelect int

var geocodeCmd = &cobra.Command{
	Use:   "geocode [query...]",
	Short: "Search a place and move the map there",
	Long: `Geocodes the query with the active provider. A single match moves the map
right away; several matches are listed and one is picked, either with
--select or by answering the prompt.

Without arguments queries are read from stdin, one per line. On a terminal a
number answers the last list of alternatives.

$ geocontrol geocode Paris
viewport	BOX(2.224100 48.815600, 2.469800 48.902100)
marker #1	POINT(2.346950 48.858850)	Paris, Île-de-France, France
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, provider, err := setup()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		view := newTerminalView(out, os.Stderr)

		ctrl, err := control.New(&terminalMap{out: out}, view, &control.Options{Geocoder: provider})
		if err != nil {
			return err
		}

		s := &session{
			ctrl:        ctrl,
			view:        view,
			out:         out,
			selection:   geocodeSelect,
			interactive: isatty.IsTerminal(os.Stdin.Fd()),
		}

		if len(args) > 0 {
			return s.query(cmd.Context(), strings.Join(args, " "), bufio.NewScanner(os.Stdin))
		}

		return s.loop(cmd.Context(), os.Stdin)
	},
}

// session drives a Control from text input.
type session struct {
	ctrl        *control.Control
	view        *terminalView
	out         io.Writer
	selection   int
	interactive bool
}

// query submits q and resolves alternatives with the preset selection or, on
// a terminal, by asking on in.
func (s *session) query(ctx context.Context, q string, in *bufio.Scanner) error {
	batch, err := s.ctrl.Submit(ctx, q)
	if err != nil {
		return err
	}

	if batch.Len() < 2 {
		return nil
	}

	if s.selection > 0 {
		if !s.ctrl.Select(batch.ID, s.selection-1) {
			return fmt.Errorf("--select %d: only %d alternatives", s.selection, batch.Len())
		}

		return nil
	}

	if !s.interactive {
		return nil
	}

	fmt.Fprintf(s.out, "choose 1-%d: ", batch.Len())

	if !in.Scan() {
		return in.Err()
	}

	return s.choose(in.Text())
}

// choose applies the alternative numbered text from the pending batch.
func (s *session) choose(text string) error {
	batch := s.view.Pending()
	if batch == nil {
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || !s.ctrl.Select(batch.ID, n-1) {
		return fmt.Errorf("%q is not one of the %d alternatives", text, batch.Len())
	}

	return nil
}

// loop reads one query per line. On a terminal a number picks an alternative
// of the previous query.
func (s *session) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	if s.interactive {
		fmt.Fprintln(os.Stderr, "Type a place to search, one per line…")
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if s.interactive && s.view.Pending() != nil {
			if _, err := strconv.Atoi(line); err == nil {
				if err := s.choose(line); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}

				continue
			}
		}

		s.ctrl.Edited()

		batch, err := s.ctrl.Submit(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\t%v\n", line, err)

			continue
		}

		if batch.Len() > 1 && s.selection > 0 {
			if !s.ctrl.Select(batch.ID, s.selection-1) {
				fmt.Fprintf(os.Stderr, "%s\tno alternative %d\n", line, s.selection)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.Flags().IntVar(&geocodeSelect, "select", 0, "pick the N-th alternative (1 based) without asking")
}
