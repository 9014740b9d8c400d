package lsp

import (
	"fortio.org/safecast"

	"raven/internal/source"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

func toPos(p position) source.Pos {
	return source.Pos{Line: safeUint32(p.Line), Col: safeUint32(p.Character)}
}

func fromPos(p source.Pos) position {
	return position{Line: int(p.Line), Character: int(p.Col)}
}

func fromRange(r source.Range) lspRange {
	return lspRange{Start: fromPos(r.Start), End: fromPos(r.End)}
}

// nameRange covers an identifier starting at p.
func nameRange(p source.Pos, name string) lspRange {
	end := p
	end.Col += source.UTF16Len(name)
	return lspRange{Start: fromPos(p), End: fromPos(end)}
}
