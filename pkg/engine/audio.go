package engine

import (
	"time"

	"github.com/zurustar/karakuri/pkg/logger"
)

// AudioSystem is what the engine needs from an audio backend. The stage
// provides a soundfont synthesizer; headless runs use NullAudio.
type AudioSystem interface {
	// PlayNote starts the given MIDI key for the given duration.
	// It returns immediately; the engine paces the script itself.
	PlayNote(key int, dur time.Duration) error

	// Close releases the backend.
	Close() error
}

// NullAudio is the muted backend: notes are logged, not played.
type NullAudio struct{}

func (NullAudio) PlayNote(key int, dur time.Duration) error {
	logger.GetLogger().Debug("muted note", "key", key, "dur", dur)
	return nil
}

func (NullAudio) Close() error {
	return nil
}
