package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/toplite/internal/model"
	"github.com/Dicklesworthstone/toplite/internal/ranking"
)

// Runner drives a sampler for a fixed number of ticks.
type Runner interface {
	Run(ctx context.Context, n int, emit func(model.Sample) error) error
}

// SizeFunc reports the output size in columns and rows.
type SizeFunc func() (width, height int)

// RunBatch writes one plain frame per tick to w, separated by a blank line.
// n <= 0 runs until ctx is done.
func RunBatch(ctx context.Context, w io.Writer, r Runner, key *ranking.Key, n int, size SizeFunc) error {
	if key == nil {
		key = ranking.DefaultKey()
	}
	first := true
	return r.Run(ctx, n, func(s model.Sample) error {
		key.Sort(&s.Processes)
		width, height := size()
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false
		_, err := fmt.Fprintln(w, Frame(s, key, width, height))
		return err
	})
}
