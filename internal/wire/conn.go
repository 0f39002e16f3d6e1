package wire

import (
	"encoding/json"
	"fmt"
	"net"
)

// recvBufferSize is sized comfortably above MaxDatagramSize so a
// marginally oversized (and therefore already-invalid) datagram is still
// read in full rather than silently truncated by the buffer itself.
const recvBufferSize = 2048

// Socket wraps a UDP connection with the envelope codec. Both the
// controller and every switch use the same Socket type — the wire
// protocol is identical in both directions (spec.md §6).
type Socket struct {
	conn *net.UDPConn
}

// Listen binds a UDP socket on addr ("host:port", or ":port" to bind all
// interfaces).
func Listen(addr string) (*Socket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("wire: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("wire: listen %q: %w", addr, err)
	}
	return &Socket{conn: conn}, nil
}

// LocalAddr returns the bound local address.
func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// Send encodes payload under tag and sends it to dst in one datagram.
func (s *Socket) Send(dst *net.UDPAddr, tag Tag, payload any) error {
	data, err := Encode(tag, payload)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(data, dst)
	if err != nil {
		return fmt.Errorf("wire: send %s to %s: %w", tag, dst, err)
	}
	return nil
}

// Receive blocks for the next datagram and returns its tag, still-encoded
// payload, and sender address. Malformed or truncated datagrams are
// reported as an error for the caller to drop silently; an unknown tag is
// returned as (tag, nil, ErrUnknownTag) so the caller can log a warning
// before discarding (spec.md §4.1).
func (s *Socket) Receive() (Tag, json.RawMessage, *net.UDPAddr, error) {
	buf := make([]byte, recvBufferSize)
	n, addr, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return "", nil, nil, fmt.Errorf("wire: receive: %w", err)
	}

	tag, payload, err := Decode(buf[:n])
	if err != nil {
		return tag, nil, addr, err
	}
	return tag, payload, addr, nil
}

// ResolveAddr is a small helper shared by the controller and switch CLIs
// for turning a host/port pair into a *net.UDPAddr.
func ResolveAddr(host string, port int) (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
}
