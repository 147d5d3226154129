package sim

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator names events, commands and packets.
type IDGenerator interface {
	Generate() string
}

// SequentialIDs counts up from 1 behind an optional prefix. Runs that name
// things with it are reproducible.
type SequentialIDs struct {
	prefix string
	issued atomic.Uint64
}

// NewSequentialIDGenerator returns a counter that produces prefix+"1",
// prefix+"2", and so on.
func NewSequentialIDGenerator(prefix string) *SequentialIDs {
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	return g.prefix + strconv.FormatUint(g.issued.Add(1), 10)
}

// Issued returns the number of IDs generated so far.
func (g *SequentialIDs) Issued() uint64 {
	return g.issued.Load()
}

// UniqueIDs produces globally unique IDs. The order of the IDs does not
// depend on the simulation, so runs are not reproducible by ID.
type UniqueIDs struct {
	prefix string
}

// NewUniqueIDGenerator returns a generator of xid based IDs.
func NewUniqueIDGenerator(prefix string) UniqueIDs {
	return UniqueIDs{prefix: prefix}
}

// Generate returns a fresh ID.
func (g UniqueIDs) Generate() string {
	return g.prefix + xid.New().String()
}
