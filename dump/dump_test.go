package dump

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/gcbridge/bridge"
	"github.com/chazu/gcbridge/hostsim"
)

func buildSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	heap := hostsim.NewHeap()
	c := bridge.NewCollector(heap)

	kept := c.NewHandle(heap.New("kept"), bridge.KindString)
	var root bridge.Value = kept
	c.RegisterRoot(&root)
	c.NewHandle(heap.New("garbage"), bridge.KindArray)
	c.NewDataHandle(heap.New("data"), &bridge.DataType{Name: "buffer"}, nil)

	stats := c.RunCollectionPass()
	return FromCollector(c, stats)
}

func TestFromCollector(t *testing.T) {
	s := buildSnapshot(t)
	if len(s.Handles) != 3 {
		t.Fatalf("snapshot has %d handles, want 3", len(s.Handles))
	}
	if s.Count("live") != 2 || s.Count("dead") != 1 {
		t.Errorf("live=%d dead=%d, want 2/1", s.Count("live"), s.Count("dead"))
	}
	if s.Pass == nil || s.Pass.Number != 1 || s.Pass.Demoted != 1 || s.Pass.Swept != 1 {
		t.Errorf("pass summary = %+v", s.Pass)
	}

	var data *Handle
	for i := range s.Handles {
		if s.Handles[i].Kind == "data" {
			data = &s.Handles[i]
		}
	}
	if data == nil {
		t.Fatal("data handle missing from snapshot")
	}
	if data.DataType != "buffer" || !data.HostWeak || data.Flags&uint8(bridge.FlagWeak) == 0 {
		t.Errorf("data handle = %+v, want weak buffer", *data)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := buildSnapshot(t)
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Taken.Equal(s.Taken) {
		t.Errorf("Taken = %v, want %v", got.Taken, s.Taken)
	}
	if len(got.Handles) != len(s.Handles) {
		t.Fatalf("handles = %d, want %d", len(got.Handles), len(s.Handles))
	}
	for i := range s.Handles {
		if got.Handles[i] != s.Handles[i] {
			t.Errorf("handle %d = %+v, want %+v", i, got.Handles[i], s.Handles[i])
		}
	}
	if *got.Pass != *s.Pass {
		t.Errorf("pass = %+v, want %+v", *got.Pass, *s.Pass)
	}

	again, err := Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("canonical encoding is not stable across a decode")
	}
}

func TestUnmarshalRejectsUnknownVersion(t *testing.T) {
	data, err := Marshal(&Snapshot{Version: Version + 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unmarshal(data); !errors.Is(err, ErrVersion) {
		t.Errorf("err = %v, want ErrVersion", err)
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("expected an error decoding garbage")
	}
}

func TestFileRoundTrip(t *testing.T) {
	s := buildSnapshot(t)
	path := filepath.Join(t.TempDir(), "registry.cbor")
	if err := WriteFile(path, s); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got.Handles) != len(s.Handles) {
		t.Errorf("handles = %d, want %d", len(got.Handles), len(s.Handles))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.cbor")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
