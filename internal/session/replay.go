package session

import (
	"context"
	"fmt"
	"log/slog"

	"imgedit/internal/app"
	"imgedit/internal/fonts"
	"imgedit/internal/image"
)

// Replay runs the script against base and returns the resulting application state,
// ready for export. The script's backend, if any, selects the compositor.
func Replay(ctx context.Context, s *Script, base *image.BaseImage) (*app.State, error) {
	events, err := s.Events()
	if err != nil {
		return nil, err
	}
	bank, err := fonts.Default()
	if err != nil {
		return nil, err
	}

	st := app.NewState(s.Viewport, bank)
	if s.Backend != "" {
		if err := st.SetBackend(s.Backend); err != nil {
			return nil, err
		}
	}
	st.SetImage(base)

	redraws := 0
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay stopped at event %d: %w", i, err)
		}
		if st.Handle(ev) {
			redraws++
		}
	}
	slog.Debug("session: replayed", "events", len(events), "redraws", redraws, "backend", st.Backend())
	return st, nil
}
