package swtch

import (
	"testing"
	"time"

	"github.com/okdaichi/sdnctl/internal/wire"
)

func directory() []wire.DirectoryEntry {
	return []wire.DirectoryEntry{
		{ID: 0, Host: "127.0.0.1", Port: 9000},
		{ID: 1, Host: "127.0.0.1", Port: 9001},
		{ID: 2, Host: "127.0.0.1", Port: 9002},
	}
}

func TestInstallDirectory_ExcludesFailedLink(t *testing.T) {
	s := NewState(0)
	s.InstallDirectory(directory(), [][2]int{{0, 1}})

	live := s.LiveNeighbors()
	for _, id := range live {
		if id == 1 {
			t.Error("neighbor 1 should be excluded by declared failed link")
		}
	}
	found2 := false
	for _, id := range live {
		if id == 2 {
			found2 = true
		}
	}
	if !found2 {
		t.Error("neighbor 2 should be a live candidate")
	}
}

func TestInstallDirectory_Idempotent(t *testing.T) {
	s := NewState(0)
	s.InstallDirectory(directory(), nil)
	first := len(s.Connected())
	s.InstallDirectory(directory(), nil)
	second := len(s.Connected())
	if first != second || first != 3 {
		t.Errorf("directory size changed across idempotent installs: %d vs %d", first, second)
	}
}

func TestTouchNeighbor_RevivedOnlyOnce(t *testing.T) {
	s := NewState(0)
	s.InstallDirectory(directory(), nil)

	now := time.Now()
	if revived := s.TouchNeighbor(1, now); revived {
		t.Error("touching an already-live neighbor should not report revived")
	}

	s.ExpireNeighbors(now.Add(100*time.Second), 0)
	if revived := s.TouchNeighbor(1, time.Now()); !revived {
		t.Error("touching a dead neighbor should report revived")
	}
	if revived := s.TouchNeighbor(1, time.Now()); revived {
		t.Error("touching an already-revived neighbor again should not report revived")
	}
}

func TestExpireNeighbors_SkipsFailedLinks(t *testing.T) {
	s := NewState(0)
	s.InstallDirectory(directory(), [][2]int{{0, 1}})

	// neighbor 1 was excluded from tracking entirely by InstallDirectory,
	// so expiring far in the future should only report neighbor 2.
	dead := s.ExpireNeighbors(time.Now().Add(time.Hour), 0)
	for _, id := range dead {
		if id == 1 {
			t.Error("failed-link neighbor should never appear in expired set")
		}
	}
}

func TestInstallRoutes_Replace(t *testing.T) {
	s := NewState(0)
	s.InstallRoutes([]wire.RouteEntry{{Src: 0, Dst: 1, NextHop: 1}})
	if got := s.Routes(); len(got) != 1 {
		t.Fatalf("Routes() = %v, want 1 row", got)
	}
	s.InstallRoutes([]wire.RouteEntry{{Src: 0, Dst: 1, NextHop: 1}, {Src: 0, Dst: 2, NextHop: 1}})
	if got := s.Routes(); len(got) != 2 {
		t.Fatalf("Routes() after replace = %v, want 2 rows", got)
	}
}
