package lsp

import (
	"sort"
	"strings"

	"raven/internal/pathres"
	"raven/internal/source"
	"raven/internal/syntax"
)

func (s *Server) handleFoldingRange(msg *rpcMessage) error {
	var params foldingRangeParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st := s.analysis()
	if st == nil {
		return s.sendResponse(msg.ID, []foldingRange{})
	}
	doc, ok := st.Document(pathres.Canonical(params.TextDocument.URI))
	if !ok || doc.Tree == nil {
		return s.sendResponse(msg.ID, []foldingRange{})
	}
	return s.sendResponse(msg.ID, buildFoldingRanges(doc.Tree))
}

// buildFoldingRanges folds multi-line braces and runs of comment lines.
func buildFoldingRanges(tree *syntax.Tree) []foldingRange {
	ranges := make([]foldingRange, 0, len(tree.Blocks))
	for _, b := range tree.Blocks {
		if b.End.Line <= b.Start.Line {
			continue
		}
		ranges = append(ranges, foldingRange{StartLine: int(b.Start.Line), EndLine: int(b.End.Line)})
	}
	ranges = append(ranges, commentFolds(tree.File)...)
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].StartLine != ranges[j].StartLine {
			return ranges[i].StartLine < ranges[j].StartLine
		}
		return ranges[i].EndLine > ranges[j].EndLine
	})
	return ranges
}

func commentFolds(file *source.File) []foldingRange {
	var out []foldingRange
	start := -1
	n := file.LineCount()
	for line := 0; line <= n; line++ {
		isComment := line < n && strings.HasPrefix(strings.TrimSpace(file.LineText(safeUint32(line))), "#")
		if isComment {
			if start < 0 {
				start = line
			}
			continue
		}
		if start >= 0 && line-1 > start {
			out = append(out, foldingRange{StartLine: start, EndLine: line - 1, Kind: "comment"})
		}
		start = -1
	}
	return out
}
