// Package wsupgrade upgrades an HTTP request to a WebSocket connection and
// hands the caller a small framed Conn, built on gobwas/ws for the
// handshake and frame codec rather than a hand-rolled one.
package wsupgrade

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/relic-http/relic"
)

// IsWebSocketUpgrade reports whether r carries the headers of a WebSocket
// upgrade handshake: an Upgrade header of "websocket" and a Connection
// header whose comma-separated tokens include "upgrade", both matched
// case-insensitively.
func IsWebSocketUpgrade(r *http.Request) bool {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, tok := range strings.Split(r.Header.Get("Connection"), ",") {
		if strings.EqualFold(strings.TrimSpace(tok), "upgrade") {
			return true
		}
	}
	return false
}

// Conn is a hijacked, upgraded WebSocket connection. Its Read/Write
// operations are whole-message, not streaming: Relic's own Handler model
// is request/response, so a WebSocket handler reads and writes complete
// frames via this type rather than through Ctx's normal response path.
type Conn struct {
	raw net.Conn
	brw *bufio.ReadWriter
}

// Options configures the upgrade handshake.
type Options struct {
	// Protocols lists acceptable Sec-WebSocket-Protocol values. The first
	// protocol in the client's offer that appears in Protocols is
	// selected; the order of Protocols itself does not matter. Empty means
	// no subprotocol negotiation.
	Protocols []string
	// CheckOrigin decides whether to accept the handshake's Origin header.
	// Defaults to accepting every origin.
	CheckOrigin func(c *relic.Ctx) bool
}

// Upgrade hijacks the connection backing c and performs the WebSocket
// handshake, returning a Conn for exchanging frames. The caller owns the
// returned Conn's lifetime and must Close it when done; Relic's own
// response-writing path (c.Text, c.JSON, etc.) must not be used afterward.
func Upgrade(c *relic.Ctx, opts Options) (*Conn, error) {
	u := ws.HTTPUpgrader{}

	if len(opts.Protocols) > 0 {
		offered := make(map[string]bool, len(opts.Protocols))
		for _, p := range opts.Protocols {
			offered[p] = true
		}
		u.Protocol = func(proto string) bool { return offered[proto] }
	}

	if opts.CheckOrigin != nil {
		u.OnHeader = func(key, value []byte) error {
			if string(key) != "Origin" {
				return nil
			}
			if opts.CheckOrigin(c) {
				return nil
			}
			return errors.New("origin rejected")
		}
	}

	conn, brw, err := u.Upgrade(c.Request(), c.Response())
	if err != nil {
		return nil, err
	}
	return &Conn{raw: conn, brw: brw}, nil
}

// ReadMessage reads one complete WebSocket message, transparently
// handling control frames (ping/pong/close) per wsutil's server-side
// reader, and returns its payload and opcode.
func (c *Conn) ReadMessage() ([]byte, ws.OpCode, error) {
	return wsutil.ReadClientData(c.raw)
}

// WriteMessage writes one complete WebSocket message as a single frame.
func (c *Conn) WriteMessage(op ws.OpCode, payload []byte) error {
	return wsutil.WriteServerMessage(c.raw, op, payload)
}

// WriteText is a convenience wrapper for WriteMessage with ws.OpText.
func (c *Conn) WriteText(payload []byte) error {
	return c.WriteMessage(ws.OpText, payload)
}

// Close sends a close frame, best-effort, then closes the underlying
// connection.
func (c *Conn) Close() error {
	_ = c.WriteMessage(ws.OpClose, nil)
	return c.raw.Close()
}

// RawConn returns the underlying hijacked net.Conn, for callers that need
// to set deadlines or inspect the local/remote address.
func (c *Conn) RawConn() net.Conn { return c.raw }
