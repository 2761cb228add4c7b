package p2p

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Connection retry/backoff constants, matching the teacher's node.go
// MaxConnectionRetries/RetryDelay (node.go:19-20) exactly, which is
// also the pairing spec.md §4.5 asks for ("up to 3 attempts, 2-5
// second backoff between attempts") — generalized to a persistent,
// newline-delimited JSON stream instead of the teacher's one-shot
// TLS-encoded request per dial. This module does not require TLS:
// spec.md's transport contract is plain TCP with peers named
// statically in configuration, not certificate-authenticated, so the
// teacher's tls.Dial/tls.Listen plumbing is dropped rather than
// adapted (see DESIGN.md).
const (
	MaxConnectionRetries = 3
	RetryDelay           = 2 * time.Second
)

const maxLineBytes = 16 * 1024 * 1024

// ErrNoConnection is returned by Send when no outbound connection to
// peer has been established by ConnectAll (spec.md §7's
// ConnectionError: "send_message fails with NoConnection when no
// connection is registered for that peer").
var ErrNoConnection = errors.New("p2p: no connection to peer")

// Transport owns one TCP listener for inbound peer connections and
// dials outbound connections to known peers, delivering every decoded
// Message to router.
type Transport struct {
	selfName string
	router   *Router
	log      *zap.Logger

	mu       sync.Mutex
	outbound map[string]net.Conn
	listener net.Listener
}

// NewTransport builds a Transport that tags outgoing messages with
// selfName and dispatches inbound ones to router.
func NewTransport(selfName string, router *Router, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{
		selfName: selfName,
		router:   router,
		log:      log,
		outbound: make(map[string]net.Conn),
	}
}

// Listen binds addr and accepts inbound connections until ctx is
// canceled, dispatching every decoded line to the router.
func (t *Transport) Listen(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("p2p: listen %s: %w", addr, err)
	}
	t.mu.Lock()
	t.listener = ln
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	t.log.Info("listening for peers", zap.String("addr", addr))
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				t.log.Warn("accept failed", zap.Error(err))
				continue
			}
		}
		go t.readLoop(conn)
	}
}

func (t *Transport) readLoop(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.log.Warn("failed to decode message", zap.Error(err))
			continue
		}
		t.router.Dispatch(msg)
	}
	if err := scanner.Err(); err != nil {
		t.log.Debug("peer connection closed", zap.Error(err))
	}
}

// Dial establishes (or reuses) a persistent outbound connection to
// peer, retrying with a flat delay up to MaxConnectionRetries times
// (node.go:248-274's connectToPeer, generalized off TLS).
func (t *Transport) Dial(peer Peer) (net.Conn, error) {
	t.mu.Lock()
	if conn, ok := t.outbound[peer.Address()]; ok {
		t.mu.Unlock()
		return conn, nil
	}
	t.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < MaxConnectionRetries; attempt++ {
		conn, err := net.Dial("tcp", peer.Address())
		if err == nil {
			t.mu.Lock()
			t.outbound[peer.Address()] = conn
			t.mu.Unlock()
			go t.readLoop(conn)
			return conn, nil
		}
		lastErr = err
		t.log.Debug("dial attempt failed", zap.String("peer", peer.Address()), zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(RetryDelay)
	}
	return nil, fmt.Errorf("p2p: dial %s: exhausted %d retries: %w", peer.Address(), MaxConnectionRetries, lastErr)
}

// ConnectAll proactively dials every peer in peers, registering each
// successful connection for later Send calls. One peer's exhausted
// retries are logged and do not block dialing the rest (spec.md §4.5's
// start(), which connects outbound to every configured peer up front
// rather than lazily on first send).
func (t *Transport) ConnectAll(peers []Peer) {
	for _, peer := range peers {
		if _, err := t.Dial(peer); err != nil {
			t.log.Warn("failed to connect to peer", zap.String("peer", peer.Address()), zap.Error(err))
		}
	}
}

// Send marshals msg as a single JSON line and writes it to the
// already-established connection for peer. It does not dial: a peer
// with no registered connection (never reached by ConnectAll, or
// dropped after a failed write) fails fast with ErrNoConnection
// instead of repeating Dial's retry/backoff loop inline (spec.md §7's
// ConnectionError).
func (t *Transport) Send(peer Peer, msg Message) error {
	t.mu.Lock()
	conn, ok := t.outbound[peer.Address()]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConnection, peer.Address())
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("p2p: encode message: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := conn.Write(encoded); err != nil {
		t.mu.Lock()
		delete(t.outbound, peer.Address())
		t.mu.Unlock()
		return fmt.Errorf("p2p: write to %s: %w", peer.Address(), err)
	}
	return nil
}

// Broadcast sends msg to every peer in peers, logging (not failing)
// individual send errors so one unreachable peer cannot block the
// others.
func (t *Transport) Broadcast(peers []Peer, msg Message) {
	for _, peer := range peers {
		if err := t.Send(peer, msg); err != nil {
			t.log.Warn("broadcast send failed", zap.String("peer", peer.Address()), zap.Error(err))
		}
	}
}

// Close shuts down the listener and every outbound connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		t.listener.Close()
	}
	for addr, conn := range t.outbound {
		conn.Close()
		delete(t.outbound, addr)
	}
	return nil
}
