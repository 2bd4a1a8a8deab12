package engine

import (
	"context"
	"errors"
	"testing"
)

func TestTrackOperation(t *testing.T) {
	sentinel := errors.New("backend down")
	err := TrackOperation(context.Background(), "digest", func(context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("TrackOperation() err = %v, want the callback's error", err)
	}

	if err := TrackOperation(context.Background(), "digest", func(context.Context) error { return nil }); err != nil {
		t.Errorf("TrackOperation() err = %v, want nil", err)
	}
}
