package controller

import (
	"net"
	"testing"
	"time"

	"github.com/okdaichi/sdnctl/internal/topology"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
}

func newLinearChainState() *State {
	g := topology.NewGraph(3)
	g.SetEdge(0, 1, 1)
	g.SetEdge(1, 2, 1)
	return NewState(g, topology.NewFailedLinks(), 3)
}

func TestRegister_FirstTimeTrue(t *testing.T) {
	s := newLinearChainState()
	now := time.Now()

	if first := s.Register(0, addr(9000), now); !first {
		t.Error("expected first registration to report firstTime=true")
	}
	if first := s.Register(0, addr(9000), now); first {
		t.Error("expected duplicate registration to report firstTime=false")
	}
	if s.RegisteredCount() != 1 {
		t.Errorf("RegisteredCount = %d, want 1", s.RegisteredCount())
	}
}

func TestResurrect_TransitionOnlyWhenDead(t *testing.T) {
	s := newLinearChainState()
	now := time.Now()

	s.Register(1, addr(9001), now)
	if transitioned := s.Resurrect(1, addr(9001), now); transitioned {
		t.Error("resurrecting an already-live switch should not transition")
	}

	s.MarkDead(1)
	if transitioned := s.Resurrect(1, addr(9001), now); !transitioned {
		t.Error("resurrecting a dead switch should transition")
	}
}

func TestScanTimeouts(t *testing.T) {
	s := newLinearChainState()
	past := time.Now().Add(-10 * time.Second)
	s.Register(0, addr(9000), past)
	s.Register(1, addr(9001), time.Now())

	dead := s.ScanTimeouts(time.Now(), 6*time.Second)
	if len(dead) != 1 || dead[0] != 0 {
		t.Errorf("ScanTimeouts = %v, want [0]", dead)
	}
}

func TestLiveCount(t *testing.T) {
	s := newLinearChainState()
	now := time.Now()
	s.Register(0, addr(9000), now)
	s.Register(1, addr(9001), now)
	s.MarkDead(1)

	if got := s.LiveCount(); got != 1 {
		t.Errorf("LiveCount = %d, want 1", got)
	}
}

func TestRecompute_LinearChain(t *testing.T) {
	s := newLinearChainState()
	now := time.Now()
	for id := 0; id < 3; id++ {
		s.Register(id, addr(9000+id), now)
	}

	rows := s.Recompute()
	got := map[[2]int]topology.RouteRow{}
	for _, r := range rows {
		got[[2]int{r.Src, r.Dst}] = r
	}

	want := []topology.RouteRow{
		{Src: 0, Dst: 0, NextHop: 0, Cost: 0},
		{Src: 0, Dst: 1, NextHop: 1, Cost: 1},
		{Src: 0, Dst: 2, NextHop: 1, Cost: 2},
	}
	for _, w := range want {
		g, ok := got[[2]int{w.Src, w.Dst}]
		if !ok || g != w {
			t.Errorf("row %v = %+v, want %+v", [2]int{w.Src, w.Dst}, g, w)
		}
	}
}
