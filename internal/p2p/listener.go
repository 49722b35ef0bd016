// Package p2p implements the deliberately minimal block listener from
// spec.md §6.6: raw TCP, no handshake, no responses, no gossip. Each
// connection is read once, decoded as a single block, and logged.
package p2p

import (
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
	"github.com/hyperion-chain/hyperion/internal/metrics"
	"github.com/hyperion-chain/hyperion/pkg/hash"
)

// maxReadBytes bounds a single connection's read, per spec.md §6.6
// ("reads up to 4096 bytes"). A block larger than this is simply
// truncated and will fail to decode — this is a hard constraint of the
// wire format, not a bug to work around.
const maxReadBytes = 4096

// Handler is invoked with each successfully decoded block.
type Handler func(block *core.Block)

// Listener accepts connections on a single TCP address and decodes one
// block per connection.
type Listener struct {
	logger  *zap.Logger
	handler Handler

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New constructs a listener that invokes handler for every block it
// successfully decodes. handler may be nil if the caller only wants the
// logging side effect.
func New(logger *zap.Logger, handler Handler) *Listener {
	return &Listener{logger: logger, handler: handler}
}

// Start binds addr and begins accepting connections in the background.
// It returns once the listen socket is bound.
func (l *Listener) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()

	l.logger.Info("p2p listener started", zap.String("addr", addr))

	l.wg.Add(1)
	go l.acceptLoop(ln)
	return nil
}

// Stop closes the listening socket and waits for the accept loop to
// exit.
func (l *Listener) Stop() error {
	l.mu.Lock()
	ln := l.listener
	l.mu.Unlock()
	if ln == nil {
		return nil
	}
	err := ln.Close()
	l.wg.Wait()
	return err
}

func (l *Listener) acceptLoop(ln net.Listener) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, maxReadBytes)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		l.logger.Warn("p2p connection read failed", zap.Error(err))
		return
	}

	block, err := core.DecodeBlock(buf[:n])
	if err != nil {
		l.logger.Warn("p2p connection sent an undecodable block", zap.Error(err))
		return
	}

	metrics.P2PBlocksReceived.Inc()
	l.logger.Info("p2p block received", zap.String("hash", hash.ToHex(block.Hash())))

	if l.handler != nil {
		l.handler(block)
	}
}
