// Package dump encodes registry snapshots for offline inspection.
package dump

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/gcbridge/bridge"
)

// Version is the snapshot format version written by Marshal.
const Version = 1

// ErrVersion is returned when decoding a snapshot of an unknown version.
var ErrVersion = errors.New("dump: unsupported snapshot version")

// Handle is one handle in a snapshot.
type Handle struct {
	ID       uint64 `cbor:"1,keyasint"`
	Kind     string `cbor:"2,keyasint"`
	Set      string `cbor:"3,keyasint"`
	Flags    uint8  `cbor:"4,keyasint"`
	DataType string `cbor:"5,keyasint,omitempty"`
	HostWeak bool   `cbor:"6,keyasint,omitempty"`
}

// Pass is the summary of the pass the snapshot was taken after.
type Pass struct {
	Number     uint64 `cbor:"1,keyasint"`
	Traced     int    `cbor:"2,keyasint"`
	Roots      int    `cbor:"3,keyasint"`
	Marked     int    `cbor:"4,keyasint"`
	Demoted    int    `cbor:"5,keyasint"`
	Swept      int    `cbor:"6,keyasint"`
	DurationNs int64  `cbor:"7,keyasint"`
}

// Snapshot is the registry state after a pass.
type Snapshot struct {
	Version int       `cbor:"1,keyasint"`
	Taken   time.Time `cbor:"2,keyasint"`
	Pass    *Pass     `cbor:"3,keyasint,omitempty"`
	Handles []Handle  `cbor:"4,keyasint"`
}

// cborEncMode uses canonical encoding so equal snapshots encode to equal
// bytes.
var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FromCollector captures c's handles. stats may be nil.
func FromCollector(c *bridge.Collector, stats *bridge.PassStats) *Snapshot {
	infos := c.Snapshot()
	s := &Snapshot{
		Version: Version,
		Taken:   time.Now().UTC(),
		Handles: make([]Handle, len(infos)),
	}
	for i, info := range infos {
		s.Handles[i] = Handle{
			ID:       uint64(info.ID),
			Kind:     info.Kind.String(),
			Set:      info.Set.String(),
			Flags:    uint8(info.Flags),
			DataType: info.DataType,
			HostWeak: info.HostWeak,
		}
	}
	if stats != nil {
		s.Pass = &Pass{
			Number:     stats.Pass,
			Traced:     stats.Traced,
			Roots:      stats.Roots,
			Marked:     stats.Marked,
			Demoted:    stats.Demoted,
			Swept:      stats.Swept,
			DurationNs: stats.Duration.Nanoseconds(),
		}
	}
	return s
}

// Count returns the number of handles in the named set ("live" or "dead").
func (s *Snapshot) Count(set string) int {
	n := 0
	for _, h := range s.Handles {
		if h.Set == set {
			n++
		}
	}
	return n
}

// Marshal serializes a Snapshot to CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("dump: unmarshal snapshot: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	return &s, nil
}

// WriteFile marshals s to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("dump: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("dump: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dump: read %s: %w", path, err)
	}
	return Unmarshal(data)
}
