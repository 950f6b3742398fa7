package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Preview fans the pipeline's camera frames out to MJPEG viewers as JPEG
// bytes. Frames are only encoded while at least one viewer is watching, and
// a slow viewer just misses frames.
type Preview struct {
	mu      sync.Mutex
	viewers map[chan []byte]struct{}
}

// NewPreview creates a Preview with no viewers.
func NewPreview() *Preview {
	return &Preview{viewers: make(map[chan []byte]struct{})}
}

// Watching reports whether any viewer is attached.
func (p *Preview) Watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.viewers) > 0
}

// Watch registers a viewer. The returned func detaches it and closes the channel.
func (p *Preview) Watch() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	p.mu.Lock()
	p.viewers[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.viewers, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
}

// PublishMat encodes frame as JPEG and hands it to every viewer. It does
// nothing when nobody is watching. The caller keeps ownership of frame.
func (p *Preview) PublishMat(frame *gocv.Mat) error {
	if frame == nil || !p.Watching() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory freed by Close.
	jpeg := append([]byte(nil), buf.GetBytes()...)
	p.Publish(jpeg)
	return nil
}

// Publish hands an already encoded JPEG to every viewer.
func (p *Preview) Publish(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.viewers {
		select {
		case ch <- jpeg:
		default:
		}
	}
}
