package capture

import (
	"context"
	"sync"
)

// fakeBackend hands out fakeStreams the test drives by hand.
type fakeBackend struct {
	mu      sync.Mutex
	devices []DeviceInfo
	openErr error
	block   bool // Open waits for ctx
	ids     map[string]string
	opened  []Source
	configs []StreamConfig
	streams []*fakeStream
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Devices(context.Context) ([]DeviceInfo, error) {
	return b.devices, nil
}

func (b *fakeBackend) Open(ctx context.Context, src Source, cfg StreamConfig, deliver func(Buffer)) (Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.opened = append(b.opened, src)
	b.configs = append(b.configs, cfg)
	if b.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if b.openErr != nil {
		return nil, b.openErr
	}

	st := newFakeStream(b.ids[src.Name], deliver)
	b.streams = append(b.streams, st)
	return st, nil
}

func (b *fakeBackend) last() *fakeStream {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.streams) == 0 {
		return nil
	}
	return b.streams[len(b.streams)-1]
}

func (b *fakeBackend) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.opened)
}

type feedRequest struct {
	buf Buffer
	ack chan struct{}
}

type fakeStream struct {
	id      string
	deliver func(Buffer)

	feed chan feedRequest
	fail chan error
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
	closed    bool
}

func newFakeStream(id string, deliver func(Buffer)) *fakeStream {
	s := &fakeStream{
		id:      id,
		deliver: deliver,
		feed:    make(chan feedRequest),
		fail:    make(chan error),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *fakeStream) run() {
	defer close(s.done)
	for {
		select {
		case req := <-s.feed:
			s.deliver(req.buf)
			close(req.ack)
		case err := <-s.fail:
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		case <-s.quit:
			return
		}
	}
}

// Feed delivers b and returns once the callback has finished.
// It reports false if the stream is no longer running.
func (s *fakeStream) Feed(b Buffer) bool {
	req := feedRequest{buf: b, ack: make(chan struct{})}
	select {
	case s.feed <- req:
		<-req.ack
		return true
	case <-s.done:
		return false
	}
}

// Fail ends delivery with err, as a backend losing its device would.
func (s *fakeStream) Fail(err error) {
	select {
	case s.fail <- err:
	case <-s.done:
	}
}

func (s *fakeStream) DeviceID() string      { return s.id }
func (s *fakeStream) Done() <-chan struct{} { return s.done }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	<-s.done
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
