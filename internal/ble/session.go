package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/hexaglow/internal/ble/protocol"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Address        string
	ServiceUUID    string
	WriteCharUUID  string
	NotifyCharUUID string
	ConnectTimeout time.Duration // per connect attempt
	ConnectRetries int
	RetryDelay     time.Duration // backoff base; attempt n sleeps n*RetryDelay
	Margin         time.Duration // slack added on top of the transport schedule for each call's deadline
}

// DefaultSessionConfig returns the defaults for MeRGBW hexagon controllers.
func DefaultSessionConfig(address string) SessionConfig {
	return SessionConfig{
		Address:        address,
		ServiceUUID:    ServiceUUID,
		WriteCharUUID:  WriteCharUUID,
		NotifyCharUUID: NotifyCharUUID,
		ConnectTimeout: 15 * time.Second,
		ConnectRetries: 5,
		RetryDelay:     700 * time.Millisecond,
		Margin:         5 * time.Second,
	}
}

// writeConfig is the resolved write target, valid for one connection.
type writeConfig struct {
	char     Characteristic
	response bool
}

// sessionOp is a unit of work for the session worker. done is buffered so a
// caller that gave up waiting never blocks the worker.
type sessionOp struct {
	fn   func() error
	done chan error
}

// Session owns one physical connection's lifecycle. All transport I/O runs on
// a single background worker goroutine; callers submit work and block on a
// result channel with a deadline. The live connection, write config and last
// notification are the only state shared across that boundary, all guarded by
// one mutex plus the notifyWake signal.
type Session struct {
	adapter Adapter
	cfg     SessionConfig

	ops        chan sessionOp
	notifyWake chan struct{} // capacity 1, "a new notification arrived"

	mu         sync.Mutex
	conn       Connection
	write      *writeConfig
	lastNotify []byte
	closing    bool
	started    bool
	stop       chan struct{}
	workerDone chan struct{}
}

// NewSession creates a session over the given adapter. The worker goroutine
// starts lazily on the first Connect.
func NewSession(adapter Adapter, cfg SessionConfig) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 700 * time.Millisecond
	}
	if cfg.Margin <= 0 {
		cfg.Margin = 5 * time.Second
	}
	return &Session{
		adapter:    adapter,
		cfg:        cfg,
		ops:        make(chan sessionOp),
		notifyWake: make(chan struct{}, 1),
	}
}

// backoffDelay returns the sleep before retrying after attempt n (1-based).
// Linear rather than exponential: these controllers drop connects when probed
// too hard, but recover within a few seconds.
func backoffDelay(attempt int, base time.Duration) time.Duration {
	return time.Duration(attempt) * base
}

// opTimeout is the default deadline for a submitted operation.
func (s *Session) opTimeout() time.Duration {
	return s.cfg.ConnectTimeout + s.cfg.Margin
}

// connectBudget covers the full retry/backoff schedule plus margin.
func (s *Session) connectBudget() time.Duration {
	n := s.cfg.ConnectRetries
	backoffs := time.Duration(n*(n+1)/2) * s.cfg.RetryDelay
	return time.Duration(n)*s.cfg.ConnectTimeout + backoffs + 2*s.cfg.Margin
}

// Connect establishes the connection, retrying with backoff. No-op when the
// session already holds a live connection.
func (s *Session) Connect() error {
	s.startWorker()
	return s.submit(s.connectBudget(), s.connectOp)
}

// WriteFrame transmits a framed command, reconnecting once on I/O failure.
func (s *Session) WriteFrame(frame []byte) error {
	return s.submit(s.opTimeout(), func() error {
		return s.writeOp(frame)
	})
}

// Disconnect tears down the connection and stops the worker. Idempotent.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	s.closing = true
	if !s.started {
		s.conn = nil
		s.write = nil
		s.lastNotify = nil
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	err := s.submit(s.opTimeout(), s.disconnectOp)

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return err
	}
	s.started = false
	stop, done := s.stop, s.workerDone
	s.mu.Unlock()

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		slog.Warn("[BLE] session worker did not stop in time")
	}
	return err
}

// AwaitState optionally requests a sync frame, then blocks the calling
// goroutine until a notification arrives or wait elapses. Connection trouble
// degrades to an all-unknown state; state reads are best-effort by design.
func (s *Session) AwaitState(wait time.Duration, requestSync bool) protocol.State {
	// Drop a stale wake signal so we only see notifications from now on.
	select {
	case <-s.notifyWake:
	default:
	}

	err := s.submit(s.opTimeout(), func() error {
		if err := s.ensureConnected(); err != nil {
			return err
		}
		if !requestSync {
			return nil
		}
		frame, err := protocol.BuildCommand(protocol.CmdSync, nil)
		if err != nil {
			return err
		}
		return s.writeOp(frame)
	})
	if err != nil {
		return protocol.State{}
	}

	select {
	case <-s.notifyWake:
		s.mu.Lock()
		raw := s.lastNotify
		s.mu.Unlock()
		return protocol.ParseState(raw)
	case <-time.After(wait):
		s.mu.Lock()
		raw := s.lastNotify
		s.mu.Unlock()
		return protocol.State{Raw: raw}
	}
}

// startWorker launches the background worker if it is not already running.
func (s *Session) startWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.closing = false
	s.started = true
	s.stop = make(chan struct{})
	s.workerDone = make(chan struct{})
	go s.worker(s.stop, s.workerDone)
}

// worker processes submitted operations one at a time until stopped.
func (s *Session) worker(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case op := <-s.ops:
			op.done <- op.fn()
		case <-stop:
			return
		}
	}
}

// submit hands fn to the worker and blocks until it completes or the deadline
// elapses. A timed-out submission is abandoned, not retracted: the worker may
// still run it and a later submission will queue behind it.
func (s *Session) submit(timeout time.Duration, fn func() error) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return fmt.Errorf("%w: call Connect first", ErrClosed)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	op := sessionOp{fn: fn, done: make(chan error, 1)}
	select {
	case s.ops <- op:
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	select {
	case err := <-op.done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// connectOp runs the bounded retry loop on the worker.
func (s *Session) connectOp() error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: enable adapter: %w", ErrConnectFailed, err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.ConnectRetries; attempt++ {
		s.mu.Lock()
		closing := s.closing
		conn := s.conn
		s.mu.Unlock()

		if closing {
			return fmt.Errorf("connect aborted: %w", ErrClosed)
		}
		if conn != nil && conn.Connected() {
			return nil
		}

		if err := s.connectOnce(); err != nil {
			lastErr = err
			slog.Warn("[BLE] connect attempt failed", "attempt", attempt, "error", err)
			time.Sleep(backoffDelay(attempt, s.cfg.RetryDelay))
			continue
		}
		slog.Info("[BLE] connected", "address", s.cfg.Address, "attempt", attempt)
		return nil
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrConnectFailed, s.cfg.ConnectRetries, lastErr)
}

// connectOnce performs a single connect attempt: open the transport, resolve
// the write target, subscribe for notifications, then atomically install the
// new connection state.
func (s *Session) connectOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ConnectTimeout)
	defer cancel()

	conn, err := s.adapter.Connect(ctx, s.cfg.Address)
	if err != nil {
		return err
	}

	char, response, err := conn.ResolveWriteTarget(s.cfg.ServiceUUID, s.cfg.WriteCharUUID)
	if err != nil {
		_ = conn.Disconnect()
		return err
	}

	// Notifications are best-effort: some firmwares have no notify
	// characteristic at all, and the controller still accepts commands.
	if err := conn.Subscribe(s.cfg.NotifyCharUUID, s.onNotify); err != nil {
		slog.Warn("[BLE] notification subscribe failed", "error", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.write = &writeConfig{char: char, response: response}
	s.lastNotify = nil
	s.mu.Unlock()
	select {
	case <-s.notifyWake:
	default:
	}
	return nil
}

// ensureConnected reconnects if the session lost its connection.
func (s *Session) ensureConnected() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil && conn.Connected() {
		return nil
	}
	return s.connectOp()
}

// writeOp writes a frame, with one reconnect-and-retry on I/O failure.
func (s *Session) writeOp(frame []byte) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}

	s.mu.Lock()
	write := s.write
	s.mu.Unlock()
	if write == nil {
		return fmt.Errorf("%w: no write target", ErrWriteFailed)
	}

	err := write.char.Write(frame, write.response)
	if err == nil {
		return nil
	}

	slog.Warn("[BLE] write failed, reconnecting", "error", err)
	s.dropConnection()
	if err := s.connectOp(); err != nil {
		return fmt.Errorf("%w: reconnect: %w", ErrWriteFailed, err)
	}

	s.mu.Lock()
	write = s.write
	s.mu.Unlock()
	if write == nil {
		return fmt.Errorf("%w: no write target after reconnect", ErrWriteFailed)
	}
	if err := write.char.Write(frame, write.response); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// dropConnection discards the current connection state after an I/O failure.
func (s *Session) dropConnection() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.write = nil
	s.lastNotify = nil
	s.mu.Unlock()
	select {
	case <-s.notifyWake:
	default:
	}
	if conn != nil {
		_ = conn.Disconnect()
	}
}

// disconnectOp closes the transport and clears connection state.
func (s *Session) disconnectOp() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.write = nil
	s.lastNotify = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Disconnect()
	}
	return nil
}

// onNotify overwrites the last-notification slot and fires the wake signal.
// Only the most recent frame matters for state queries.
func (s *Session) onNotify(data []byte) {
	s.mu.Lock()
	s.lastNotify = data
	s.mu.Unlock()
	select {
	case s.notifyWake <- struct{}{}:
	default:
	}
}
