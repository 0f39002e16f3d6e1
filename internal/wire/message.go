// Package wire implements the message codec shared by the controller and
// the switch: one tagged JSON envelope per UDP datagram, bounded to
// MaxDatagramSize bytes (spec.md §4.1, §6).
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxDatagramSize is the maximum encoded size of a single message, per
// spec.md §6.
const MaxDatagramSize = 1024

// Tag identifies the payload shape carried by an Envelope.
type Tag string

const (
	TagRegisterRequest  Tag = "register_request"
	TagRegisterResponse Tag = "register_response"
	TagRoutingUpdate    Tag = "routing_update"
	TagKeepAlive        Tag = "keep_alive"
	TagTopologyUpdate   Tag = "topology_update"
)

// ErrUnknownTag is returned by Decode when the envelope's tag is not one of
// the five known tags. Callers must log a warning and discard the
// datagram (spec.md §4.1).
var ErrUnknownTag = errors.New("wire: unknown message tag")

// ErrTooLarge is returned by Encode when the encoded message would exceed
// MaxDatagramSize.
var ErrTooLarge = errors.New("wire: message exceeds max datagram size")

// Envelope is the self-delimiting wrapper every datagram carries: a tag
// plus a tag-specific JSON payload. A single json.Decoder.Decode call
// consumes exactly one envelope, so one JSON object per datagram is
// naturally self-delimiting.
type Envelope struct {
	Tag     Tag             `json:"tag"`
	Payload json.RawMessage `json:"payload"`
}

// RegisterRequest is sent by a switch to the controller: on initial
// bootstrap (FailedNeighbor optionally set) and again whenever the switch
// wants to (re)announce itself, including resurrection after a
// controller-side timeout.
type RegisterRequest struct {
	SwitchID       int  `json:"switch_id"`
	FailedNeighbor *int `json:"failed_neighbor,omitempty"`
}

// DirectoryEntry is one row of the switch directory carried in a
// Register_Response ("N\n<id> <host> <port>\n..." in spec.md §4.1's prose
// form; here it is just a JSON array of entries with the same content).
type DirectoryEntry struct {
	ID   int    `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// RegisterResponse is broadcast by the controller to every registered
// switch once all N switches have registered (spec.md §4.2).
type RegisterResponse struct {
	Directory   []DirectoryEntry `json:"directory"`
	FailedLinks [][2]int         `json:"failed_links"`
}

// RouteEntry is one row of a Routing_Update: the switch view, so it omits
// the cost column (spec.md §4.1).
type RouteEntry struct {
	Src     int `json:"src"`
	Dst     int `json:"dst"`
	NextHop int `json:"next_hop"`
}

// RoutingUpdate carries the rows scoped to one recipient switch.
type RoutingUpdate struct {
	Rows []RouteEntry `json:"rows"`
}

// KeepAlive is the periodic liveness probe exchanged between neighboring
// switches.
type KeepAlive struct {
	SwitchID int `json:"switch_id"`
}

// TopologyUpdate is the switch's periodic report of its local view of
// neighbor liveness to the controller.
type TopologyUpdate struct {
	SwitchID          int            `json:"switch_id"`
	NeighborState     map[int]bool   `json:"neighbor_state"`
	NeighborLastHeard map[int]string `json:"neighbor_last_heard"` // RFC3339Nano per neighbor
}

// Encode wraps a payload in an Envelope with the given tag and marshals
// it, rejecting anything that would not fit in one datagram.
func Encode(tag Tag, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s payload: %w", tag, err)
	}

	data, err := json.Marshal(Envelope{Tag: tag, Payload: body})
	if err != nil {
		return nil, fmt.Errorf("wire: marshal envelope: %w", err)
	}

	if len(data) > MaxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes (%s)", ErrTooLarge, len(data), tag)
	}
	return data, nil
}

// Decode unwraps an envelope and returns its tag plus the still-encoded
// payload, for the caller to pass to DecodeRegisterRequest et al. Malformed
// JSON is reported as an error; the receive loop drops such datagrams
// silently per spec.md §4.1/§7.
func Decode(data []byte) (Tag, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("wire: decode envelope: %w", err)
	}
	switch env.Tag {
	case TagRegisterRequest, TagRegisterResponse, TagRoutingUpdate, TagKeepAlive, TagTopologyUpdate:
		return env.Tag, env.Payload, nil
	default:
		return env.Tag, nil, ErrUnknownTag
	}
}

// DecodeRegisterRequest, DecodeRegisterResponse, DecodeRoutingUpdate,
// DecodeKeepAlive, and DecodeTopologyUpdate unmarshal a payload returned by
// Decode into its concrete type.

func DecodeRegisterRequest(payload json.RawMessage) (RegisterRequest, error) {
	var v RegisterRequest
	err := json.Unmarshal(payload, &v)
	return v, err
}

func DecodeRegisterResponse(payload json.RawMessage) (RegisterResponse, error) {
	var v RegisterResponse
	err := json.Unmarshal(payload, &v)
	return v, err
}

func DecodeRoutingUpdate(payload json.RawMessage) (RoutingUpdate, error) {
	var v RoutingUpdate
	err := json.Unmarshal(payload, &v)
	return v, err
}

func DecodeKeepAlive(payload json.RawMessage) (KeepAlive, error) {
	var v KeepAlive
	err := json.Unmarshal(payload, &v)
	return v, err
}

func DecodeTopologyUpdate(payload json.RawMessage) (TopologyUpdate, error) {
	var v TopologyUpdate
	err := json.Unmarshal(payload, &v)
	return v, err
}
