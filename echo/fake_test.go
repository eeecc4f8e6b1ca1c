package echo

// Scripted link and socket fakes shared by the tests in this package.

import (
	"context"
	"sync"
	"time"

	"goecho/internal/link"
)

// fakeTimeout satisfies net.Error's timeout check.
type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "fake: receive timed out" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

// fakeLink scripts connect results attempt by attempt.
type fakeLink struct {
	mu sync.Mutex

	// connectErrs is consumed one entry per attempt (nil = success).
	// Once drained, persistentErr is returned forever; if that is nil
	// the attempt succeeds.
	connectErrs   []error
	persistentErr error

	attempts  int
	connected bool
	addr      string
	creds     link.Credentials
	credCalls int

	resolveTo  string
	resolveErr error

	sock    *fakeSocket
	openErr error
	opened  []link.Transport
}

func (l *fakeLink) SetCredentials(c link.Credentials) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creds = c
	l.credCalls++
}

func (l *fakeLink) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts++

	var err error
	if len(l.connectErrs) > 0 {
		err = l.connectErrs[0]
		l.connectErrs = l.connectErrs[1:]
	} else {
		err = l.persistentErr
	}
	if err != nil {
		return err
	}
	l.connected = true
	return nil
}

func (l *fakeLink) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *fakeLink) Address() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

func (l *fakeLink) Resolve(ctx context.Context, host string) (string, error) {
	if l.resolveErr != nil {
		return "", l.resolveErr
	}
	if l.resolveTo != "" {
		return l.resolveTo, nil
	}
	return host, nil
}

func (l *fakeLink) Open(t link.Transport) (link.Socket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = append(l.opened, t)
	if l.openErr != nil {
		return nil, l.openErr
	}
	if l.sock == nil {
		l.sock = &fakeSocket{}
	}
	return l.sock, nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
	return nil
}

// fakeSocket records every call and scripts the reply behaviour.
type fakeSocket struct {
	mu sync.Mutex

	// Behaviour knobs.
	echoBack   bool   // reply with exactly what was sent
	reply      []byte // explicit reply (used when echoBack is false)
	noReply    bool   // block for the timeout, then time out
	connectErr error
	sendErr    error

	// Recorded state.
	timeout    time.Duration
	connected  bool
	connectTo  string
	sentTo     string
	sent       []byte
	closeCalls int
}

func (s *fakeSocket) Connect(ctx context.Context, address string) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.connectTo = address
	return nil
}

func (s *fakeSocket) Send(p []byte) (int, error) {
	return s.sendTo("", p)
}

func (s *fakeSocket) SendTo(address string, p []byte) (int, error) {
	return s.sendTo(address, p)
}

func (s *fakeSocket) sendTo(address string, p []byte) (int, error) {
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentTo = address
	s.sent = append([]byte(nil), p...)
	return len(p), nil
}

func (s *fakeSocket) Recv(p []byte) (int, error) {
	n, _, err := s.RecvFrom(p)
	return n, err
}

func (s *fakeSocket) RecvFrom(p []byte) (int, string, error) {
	if s.noReply {
		time.Sleep(s.timeout)
		return 0, "", fakeTimeout{}
	}

	s.mu.Lock()
	reply := s.reply
	if s.echoBack {
		reply = s.sent
	}
	s.mu.Unlock()

	n := copy(p, reply)
	return n, "server", nil
}

func (s *fakeSocket) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}
