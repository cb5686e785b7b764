// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     audio
// Description: Microphone capture via PortAudio
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// DefaultSampleRate matches what Whisper expects
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is 30ms at 16kHz, a multiple of the 10ms
	// VAD frame
	DefaultFramesPerBuffer = 480

	captureChannels = 1
)

// CaptureConfig holds microphone settings
type CaptureConfig struct {
	SampleRate      int
	FramesPerBuffer int

	// DeviceName selects an input device by PortAudio name; empty or
	// "default" uses the system default.
	DeviceName string
}

// DefaultCaptureConfig returns the standard 16kHz mono configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:      DefaultSampleRate,
		FramesPerBuffer: DefaultFramesPerBuffer,
	}
}

// Capture reads microphone frames and pushes them to a channel. One
// Capture instance serves the whole process; recordings start and stop
// the stream around each session.
type Capture struct {
	mu         sync.RWMutex
	cfg        CaptureConfig
	stream     *portaudio.Stream
	running    bool
	terminated bool
	frames     chan []float32
}

// NewCapture initializes PortAudio and prepares a capture instance
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FramesPerBuffer == 0 {
		cfg.FramesPerBuffer = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	return &Capture{
		cfg:    cfg,
		frames: make(chan []float32, 100),
	}, nil
}

// Start opens the input stream and begins pushing frames until the
// context is cancelled or Stop is called.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]float32, c.cfg.FramesPerBuffer)

	stream, err := c.openStream(buffer)
	if err != nil {
		return fmt.Errorf("opening audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting audio stream: %w", err)
	}

	c.stream = stream
	c.running = true

	go c.loop(ctx, buffer)
	return nil
}

func (c *Capture) openStream(buffer []float32) (*portaudio.Stream, error) {
	name := c.cfg.DeviceName
	if name != "" && name != "default" {
		device, err := findInputDevice(name)
		if err == nil {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: captureChannels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      float64(c.cfg.SampleRate),
				FramesPerBuffer: c.cfg.FramesPerBuffer,
			}
			return portaudio.OpenStream(params, buffer)
		}
		// Named device gone (unplugged USB mic): fall through to the
		// default input rather than refusing to record.
	}
	return portaudio.OpenDefaultStream(
		captureChannels, 0,
		float64(c.cfg.SampleRate), c.cfg.FramesPerBuffer,
		buffer,
	)
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device not found: %s", name)
}

// InputDevices lists the available input devices by name. It manages
// its own PortAudio init so the devices subcommand needs no Capture.
func InputDevices() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			names = append(names, dev.Name)
		}
	}
	return names, nil
}

func (c *Capture) loop(ctx context.Context, buffer []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		stream, running := c.stream, c.running
		c.mu.RUnlock()
		if !running || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			c.mu.RLock()
			running = c.running
			c.mu.RUnlock()
			if !running {
				return
			}
			// Transient overflow; keep reading.
			continue
		}

		frame := make([]float32, len(buffer))
		copy(frame, buffer)

		select {
		case c.frames <- frame:
		default:
			// Consumer stalled; dropping a frame beats blocking the
			// audio thread.
		}
	}
}

// Stop closes the input stream
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	if c.stream != nil {
		c.stream.Stop()
		if err := c.stream.Close(); err != nil {
			c.stream = nil
			return fmt.Errorf("closing audio stream: %w", err)
		}
		c.stream = nil
	}
	return nil
}

// Close stops capture and releases PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return nil
	}
	c.terminated = true
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminating portaudio: %w", err)
	}
	return nil
}

// Frames returns the capture output channel
func (c *Capture) Frames() <-chan []float32 {
	return c.frames
}

// IsRunning reports whether the stream is open
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}
