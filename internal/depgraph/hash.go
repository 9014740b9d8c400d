package depgraph

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// EdgesHash is a stable hash of the outgoing edges of uri.
func (g *Graph) EdgesHash(uri string) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesHashLocked(uri)
}

// ReverseEdgesHash is a stable hash of the edges that include uri.
func (g *Graph) ReverseEdgesHash(uri string) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return hashEdges(g.dependentsLocked(uri))
}

func (g *Graph) edgesHashLocked(uri string) uint64 {
	return hashEdges(g.forward[uri])
}

// hashEdges хеширует рёбра в том порядке, в котором они хранятся
// (forward уже отсортирован).
func hashEdges(edges []Edge) uint64 {
	h := xxh3.New()
	var buf [4]byte
	u32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	str := func(s string) {
		u32(uint32(len(s))) // #nosec G115 -- length prefix only separates fields
		_, _ = h.WriteString(s)
	}
	opt := func(p *uint32) {
		if p == nil {
			_, _ = h.Write([]byte{0})
			return
		}
		_, _ = h.Write([]byte{1})
		u32(*p)
	}
	flags := func(e Edge) byte {
		var b byte
		for i, set := range []bool{e.Local, e.Chdir, e.IsSysSource, e.SysSourceGlobalEnv, e.IsDirective} {
			if set {
				b |= 1 << i
			}
		}
		return b
	}

	u32(uint32(len(edges))) // #nosec G115
	for _, e := range edges {
		str(e.From)
		str(e.To)
		opt(e.CallSiteLine)
		opt(e.CallSiteColumn)
		_, _ = h.Write([]byte{flags(e)})
	}
	return h.Sum64()
}
