// Package eventlog implements the fixed-grammar, append-only textual event
// log every process writes (spec.md §6): "Controller.log" for the
// controller, "switch<i>.log" for switch i. This is an out-of-scope
// external collaborator per spec.md §1 — the core protocol only needs the
// contract (one call per protocol event) — but the file names and record
// grammar are a compatibility surface, so the format below is exact.
package eventlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger appends blank-line-separated records to a single log file. Each
// record's first line is a local "HH:MM:SS.micro" timestamp; the rest of
// the record is the event body.
type Logger struct {
	mu sync.Mutex
	f  *os.File
}

// ControllerLogPath is the fixed file name for the controller's log.
const ControllerLogPath = "Controller.log"

// SwitchLogPath returns the fixed file name for switch id's log.
func SwitchLogPath(id int) string {
	return fmt.Sprintf("switch%d.log", id)
}

// Open appends to (creating if necessary) the log file at path.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %q: %w", path, err)
	}
	return &Logger{f: f}, nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	return l.f.Close()
}

func (l *Logger) writeRecord(body string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("15:04:05.000000")
	// A write failure here has nowhere useful to go: the event log is a
	// best-effort side channel, not the protocol itself.
	fmt.Fprintf(l.f, "%s\n%s\n\n", ts, body)
}

// ControllerRow is one row of a controller-side Routing_Update record
// (includes the cost column).
type ControllerRow struct {
	Src, Dst, NextHop int
	Cost              int
}

// SwitchRow is one row of a switch-side Routing_Update record (no cost
// column — spec.md §6: "The switch's Routing Update omits the ,<cost>
// suffix.").
type SwitchRow struct {
	Src, Dst, NextHop int
}

func (l *Logger) RegisterRequest(id int) {
	l.writeRecord(fmt.Sprintf("Register Request %d", id))
}

func (l *Logger) RegisterResponse(id int) {
	l.writeRecord(fmt.Sprintf("Register Response %d", id))
}

func (l *Logger) RoutingUpdateController(rows []ControllerRow) {
	l.writeRecord(formatRoutingUpdate(rows))
}

func (l *Logger) RoutingUpdateSwitch(rows []SwitchRow) {
	l.writeRecord(formatRoutingUpdateSwitch(rows))
}

func (l *Logger) LinkDead(a, b int) {
	l.writeRecord(fmt.Sprintf("Link Dead %d,%d", a, b))
}

func (l *Logger) SwitchDead(id int) {
	l.writeRecord(fmt.Sprintf("Switch Dead %d", id))
}

func (l *Logger) SwitchAlive(id int) {
	l.writeRecord(fmt.Sprintf("Switch Alive %d", id))
}

func (l *Logger) RegisterRequestSent() {
	l.writeRecord("Register Request Sent")
}

func (l *Logger) RegisterResponseReceived() {
	l.writeRecord("Register Response received")
}

func (l *Logger) NeighborDead(id int) {
	l.writeRecord(fmt.Sprintf("Neighbor Dead %d", id))
}

func (l *Logger) NeighborAlive(id int) {
	l.writeRecord(fmt.Sprintf("Neighbor Alive %d", id))
}

func formatRoutingUpdate(rows []ControllerRow) string {
	s := "Routing Update\n"
	for _, r := range rows {
		s += fmt.Sprintf("%d,%d:%d,%d\n", r.Src, r.Dst, r.NextHop, r.Cost)
	}
	s += "Routing Complete"
	return s
}

func formatRoutingUpdateSwitch(rows []SwitchRow) string {
	s := "Routing Update\n"
	for _, r := range rows {
		s += fmt.Sprintf("%d,%d:%d\n", r.Src, r.Dst, r.NextHop)
	}
	s += "Routing Complete"
	return s
}
