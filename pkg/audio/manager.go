// Package audio plays navigation cues through the system speaker.
package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Service defines the interface for cue playback control.
type Service interface {
	// Play starts playback of an audio file, replacing any cue still playing.
	// onComplete is called when playback finishes (not when stopped).
	Play(filepath string, onComplete func()) error
	// Stop stops current playback.
	Stop()
	// Shutdown stops playback and releases the current file.
	Shutdown()

	IsPlaying() bool
	// SetVolume sets playback volume (0.0 to 1.0).
	SetVolume(vol float64)
	Volume() float64
	// SetMuted silences playback without forgetting the volume.
	SetMuted(muted bool)
	IsMuted() bool
	// LastCue returns the path of the last played file.
	LastCue() string
	// Remaining returns the remaining time of the current playback.
	Remaining() time.Duration
}

// Manager implements the Service interface using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	volume             float64
	muted              bool
	lastCue            string
	speakerInitialized bool
	currentSampleRate  beep.SampleRate
	streamer           *effects.Volume
	trackStreamer      beep.StreamSeekCloser
	trackFormat        beep.Format
}

// New creates a new Manager instance with the given volume.
func New(volume float64) *Manager {
	m := &Manager{volume: 1.0}
	m.SetVolume(volume)
	return m
}

// Play starts playback of an audio file.
func (m *Manager) Play(filepath string, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stop any current playback and close the file handle
	m.stopLocked()

	streamer, format, err := DecodeMedia(filepath)
	if err != nil {
		slog.Error("Audio: Failed to decode cue", "path", filepath, "error", err)
		return err
	}

	// Initialize speaker once at 48kHz if not done
	if err := m.ensureSpeakerInitialized(streamer); err != nil {
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, m.currentSampleRate, streamer)

	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.silentLocked(),
	}

	m.streamer = volStreamer
	m.trackStreamer = streamer
	m.trackFormat = format
	m.ctrl = &beep.Ctrl{Streamer: volStreamer}

	speaker.Play(beep.Seq(m.ctrl, beep.Callback(func() {
		// Leave the speaker goroutine before taking the manager lock
		go func() {
			m.mu.Lock()
			m.ctrl = nil
			m.mu.Unlock()
			streamer.Close()

			if onComplete != nil {
				onComplete()
			}
		}()
	})))

	m.lastCue = filepath
	slog.Debug("Audio: Playing cue", "path", filepath)
	return nil
}

// Stop stops current playback.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.trackStreamer != nil {
		m.trackStreamer.Close()
		m.trackStreamer = nil
	}
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
	}
}

func (m *Manager) ensureSpeakerInitialized(streamer beep.StreamSeekCloser) error {
	const targetSampleRate = 48000
	if !m.speakerInitialized {
		err := speaker.Init(beep.SampleRate(targetSampleRate), beep.SampleRate(targetSampleRate).N(time.Second/10))
		if err != nil {
			streamer.Close()
			slog.Error("Audio: Failed to initialize speaker", "error", err)
			return err
		}
		m.speakerInitialized = true
		m.currentSampleRate = beep.SampleRate(targetSampleRate)
	}
	return nil
}

// Shutdown stops playback.
func (m *Manager) Shutdown() {
	m.Stop()
	if m.speakerInitialized {
		speaker.Close()
	}
}

// IsPlaying returns true if a cue is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol
	m.applyLocked()
}

// Volume returns current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.applyLocked()
	slog.Debug("Audio: Mute set", "muted", muted)
}

func (m *Manager) IsMuted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

func (m *Manager) silentLocked() bool {
	return m.muted || m.volume <= 0.01
}

// applyLocked updates the live streamer if playing.
func (m *Manager) applyLocked() {
	if m.streamer == nil {
		return
	}
	speaker.Lock()
	m.streamer.Volume = volumeToPower(m.volume)
	m.streamer.Silent = m.silentLocked()
	speaker.Unlock()
}

// LastCue returns the path of the last played file.
func (m *Manager) LastCue() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCue
}

// Remaining returns the remaining time of the current playback.
func (m *Manager) Remaining() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	remainingSamples := m.trackStreamer.Len() - m.trackStreamer.Position()
	if remainingSamples < 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(remainingSamples)
}
