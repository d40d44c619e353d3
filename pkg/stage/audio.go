package stage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SampleRate is the audio sample rate used for note synthesis.
const SampleRate = 44100

// noteVelocity is the fixed MIDI velocity notes are struck with.
const noteVelocity = 100

// SynthAudio renders single notes through a SoundFont synthesizer into
// an Ebitengine audio player. It implements engine.AudioSystem.
type SynthAudio struct {
	synth  *meltysynth.Synthesizer
	stream *synthStream
	player *audio.Player

	mu sync.Mutex
}

// NewSynthAudio builds the synthesizer from raw SoundFont (.sf2) data
// and starts the output stream.
func NewSynthAudio(sf2 []byte) (*SynthAudio, error) {
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(sf2))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	// Ebitengine allows a single audio context per process.
	audioCtx := audio.CurrentContext()
	if audioCtx == nil {
		audioCtx = audio.NewContext(SampleRate)
	}

	a := &SynthAudio{synth: synth}
	a.stream = &synthStream{audio: a}

	player, err := audioCtx.NewPlayer(a.stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	a.player = player
	player.Play()

	return a, nil
}

// PlayNote strikes the MIDI key on channel 0 and releases it after
// dur. It returns immediately; the engine paces the script itself.
func (a *SynthAudio) PlayNote(key int, dur time.Duration) error {
	a.mu.Lock()
	a.synth.NoteOn(0, int32(key), noteVelocity)
	a.mu.Unlock()

	time.AfterFunc(dur, func() {
		a.mu.Lock()
		a.synth.NoteOff(0, int32(key))
		a.mu.Unlock()
	})
	return nil
}

// Close silences the synthesizer and releases the player.
func (a *SynthAudio) Close() error {
	a.mu.Lock()
	a.synth.NoteOffAll(false)
	a.mu.Unlock()
	a.stream.Stop()
	return a.player.Close()
}

// synthStream implements io.Reader for Ebitengine/audio: each Read
// renders the next chunk of 16-bit interleaved stereo from the
// synthesizer.
type synthStream struct {
	audio   *SynthAudio
	stopped bool
	mu      sync.Mutex
}

func (s *synthStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()

	// 16-bit stereo: 4 bytes per sample.
	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}

	if stopped {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	left := make([]float32, samples)
	right := make([]float32, samples)

	s.audio.mu.Lock()
	s.audio.synth.Render(left, right)
	s.audio.mu.Unlock()

	for i := 0; i < samples; i++ {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return len(p), nil
}

// Stop makes subsequent Reads return silence.
func (s *synthStream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
