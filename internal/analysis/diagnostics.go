package analysis

import (
	"context"
	"fmt"
	"os"
	"strings"

	"raven/internal/config"
	"raven/internal/depgraph"
	"raven/internal/diag"
	"raven/internal/directive"
	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/revalidate"
	"raven/internal/scope"
	"raven/internal/source"
	"raven/internal/syntax"
)

// Report is the diagnostics of one file and the snapshot they describe.
// Snapshot is zero for closed files.
type Report struct {
	URI         string
	Snapshot    revalidate.Snapshot
	Diagnostics []diag.Diagnostic
}

// reference is an include or parent that is not known to the workspace;
// it becomes a diagnostic only if the file is absent on disk too.
type reference struct {
	pos    source.Pos
	path   string
	target string
	parent bool
}

// inputs is what Diagnostics copies out under the read lock.
type inputs struct {
	cfg       config.Config
	snap      revalidate.Snapshot
	file      *source.File
	tree      *syntax.Tree
	meta      *metadata.FileMetadata
	layers    *scope.Layers
	conflicts []depgraph.Conflict
	unknown   []reference
	workDir   string

	cycle     []string
	cycleEdge depgraph.Edge
}

// Diagnostics computes the cross-file diagnostics of an open or indexed
// file. The second result is false when uri is unknown or ctx was
// cancelled.
func (s *State) Diagnostics(ctx context.Context, uri string) (Report, bool) {
	report := Report{URI: uri}
	s.hydrate(uri)

	var (
		file *source.File
		tree *syntax.Tree
	)
	if !s.IsOpen(uri) {
		text, _, err := s.files.Read(uri)
		if err != nil {
			return report, false
		}
		file = source.FromString(pathres.URIToPath(uri), text)
		tree = syntax.Parse(file)
	}
	if ctx.Err() != nil {
		return report, false
	}

	in, ok := s.collect(uri, file, tree)
	if !ok || ctx.Err() != nil {
		return report, false
	}
	report.Snapshot = in.snap
	if !in.cfg.DiagnosticsEnabled {
		return report, true
	}

	bag := diag.NewBag(0)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	reportReferences(rep, uri, in)
	reportGraph(rep, uri, in)
	reportDirectives(rep, uri, in)
	if ctx.Err() != nil {
		return report, false
	}
	reportSymbols(rep, uri, in)

	bag.DropLines(in.meta.IsLineIgnored)
	bag.Sort()
	report.Diagnostics = bag.Items()
	return report, ctx.Err() == nil
}

func (s *State) collect(uri string, file *source.File, tree *syntax.Tree) (inputs, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in := inputs{cfg: s.cfg, file: file, tree: tree}
	if d, ok := s.docs[uri]; ok {
		in.snap = d.Snapshot()
		in.file, in.tree, in.meta = d.File, d.Tree, d.Meta
	} else {
		if file == nil {
			return in, false
		}
		meta, ok := s.metadataLocked(uri)
		if !ok {
			return in, false
		}
		in.meta = meta
	}

	in.layers = s.layersLocked(uri)
	in.conflicts = s.conflicts[uri]
	if e, cycle, ok := s.graph.DetectCycle(uri); ok {
		in.cycle, in.cycleEdge = cycle, e
	}

	fwd := s.paths.ForMetadata(uri, in.meta)
	for _, src := range in.meta.Sources {
		if target, ok := fwd.Resolve(src.Path); ok && !s.knownLocked(target) {
			in.unknown = append(in.unknown, reference{pos: src.Pos(), path: src.Path, target: target})
		}
	}
	back := s.paths.ForBackward(uri)
	for _, d := range in.meta.SourcedBy {
		if parent, ok := back.Resolve(d.Path); ok && !s.knownLocked(parent) {
			in.unknown = append(in.unknown, reference{
				pos:    source.Pos{Line: d.DirectiveLine},
				path:   d.Path,
				target: parent,
				parent: true,
			})
		}
	}
	if wd := in.meta.WorkDir(); wd != "" {
		if dir, ok := back.ResolveWorkingDirectory(wd); ok {
			in.workDir = dir
		}
	}
	return in, true
}

// lineRange spans from pos to the end of its line.
func lineRange(file *source.File, pos source.Pos) source.Range {
	end := source.UTF16Len(file.LineText(pos.Line))
	if end < pos.Col {
		end = pos.Col
	}
	return source.Range{Start: pos, End: source.Pos{Line: pos.Line, Col: end}}
}

func exists(uri string) bool {
	p := pathres.URIToPath(uri)
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func reportReferences(rep diag.Reporter, uri string, in inputs) {
	sev := in.cfg.Severity.MissingFile
	for _, ref := range in.unknown {
		if exists(ref.target) {
			continue
		}
		msg := fmt.Sprintf("File not found: '%s'", ref.path)
		if ref.parent {
			msg = fmt.Sprintf("Parent file not found: '%s'", ref.path)
		}
		rep.Report(diag.XFileMissing, sev, uri, lineRange(in.file, ref.pos), msg, nil)
	}
	if in.meta.WorkDir() != "" {
		line, _ := directive.WorkDirLine(in.file.Text())
		if in.workDir == "" || !exists(pathres.PathToURI(in.workDir)) {
			rep.Report(diag.XFileWorkingDirErr, sev, uri, lineRange(in.file, source.Pos{Line: line}),
				fmt.Sprintf("Working directory not found: '%s'", in.meta.WorkDir()), nil)
		}
	}
}

func cycleMessage(cycle []string) string {
	names := make([]string, len(cycle))
	for i, u := range cycle {
		names[i] = pathres.Base(u)
	}
	return "Circular dependency detected: " + strings.Join(names, " -> ")
}

func reportGraph(rep diag.Reporter, uri string, in inputs) {
	sev := in.cfg.Severity
	for _, c := range in.conflicts {
		pos := source.Pos{Line: c.Line, Col: c.Column}
		rep.Report(diag.XFileConflict, sev.SourceConflict, uri, lineRange(in.file, pos), c.Message, nil)
	}
	if in.cycle != nil {
		pos, _ := in.cycleEdge.CallSite()
		rep.Report(diag.XFileCircular, sev.CircularDependency, uri, lineRange(in.file, pos), cycleMessage(in.cycle), nil)
	}

	directiveLine := uint32(0)
	if len(in.meta.SourcedBy) > 0 {
		directiveLine = in.meta.SourcedBy[0].DirectiveLine
	}
	for _, e := range in.layers.Result.Errors {
		site := e.Site()
		if site.URI != uri {
			continue
		}
		switch e := e.(type) {
		case scope.MaxDepthExceeded:
			rep.Report(diag.XFileMaxDepth, sev.MaxChainDepth, uri, lineRange(in.file, site.Pos), e.Error(), nil)
		case scope.AmbiguousParents:
			b := diag.NewReportBuilder(rep, sev.AmbiguousParent, diag.XFileAmbiguous, uri,
				lineRange(in.file, source.Pos{Line: directiveLine}), e.Error())
			for _, alt := range e.Alternatives {
				b.WithNote(alt, source.Range{}, "possible parent")
			}
			b.Emit()
		case scope.CircularDependency:
			if in.cycle == nil {
				rep.Report(diag.XFileCircular, sev.CircularDependency, uri, lineRange(in.file, site.Pos), cycleMessage(e.Cycle), nil)
			}
		}
	}
}

func reportDirectives(rep diag.Reporter, uri string, in inputs) {
	for _, p := range directive.Lint(in.file.Text()) {
		rep.Report(diag.XFileBadDirective, diag.SevHint, uri, lineRange(in.file, source.Pos{Line: p.Line}),
			fmt.Sprintf("Unrecognised directive: %s", p.Text), nil)
	}
}

// reportSymbols checks every identifier read. Top-level reads must be
// defined before use; a name that only a later source() provides is out of
// scope. Function bodies run later, so there any definition in the file's
// environment counts.
func reportSymbols(rep diag.Reporter, uri string, in inputs) {
	l := in.layers
	if l == nil || l.Artifacts == nil || in.tree == nil {
		return
	}
	sev := in.cfg.Severity
	for _, u := range in.tree.Usages {
		if u.InFormula || isBuiltin(u.Name) {
			continue
		}
		rng := source.Range{Start: u.Pos, End: u.End}
		local := l.Artifacts.SymbolsAt(u.Pos)
		if _, ok := l.Lookup(local, u.Name, u.Pos); ok {
			continue
		}
		if u.Func >= 0 {
			if l.Anywhere(u.Name) || definedInFunc(l.Artifacts, u) {
				continue
			}
		} else {
			if inc, ok := l.Later(u.Name, u.Pos); ok {
				rep.Report(diag.ScopeOutOfScope, sev.OutOfScope, uri, rng,
					fmt.Sprintf("Symbol '%s' used before source() call at line %d", u.Name, inc.Pos.Line+1), nil)
				continue
			}
			if _, later := l.Artifacts.Exported[u.Name]; later {
				continue
			}
		}
		if !in.cfg.UndefinedVariablesEnabled || u.Call || u.InArgs || libraryBefore(in.tree, u.Pos) {
			continue
		}
		rep.Report(diag.ScopeUndefined, sev.UndefinedVariable, uri, rng,
			fmt.Sprintf("Undefined variable: %s", u.Name), nil)
	}
}

// definedInFunc reports whether the function containing u assigns the name
// anywhere in its body, e.g. in a loop before the read.
func definedInFunc(a *scope.Artifacts, u syntax.Usage) bool {
	for _, ev := range a.Timeline {
		if ev.Kind == scope.EventDef && ev.Func >= 0 && ev.Symbol.Name == u.Name &&
			a.FunctionScopes[ev.Func].Contains(u.Pos) {
			return true
		}
	}
	return false
}

func libraryBefore(tree *syntax.Tree, p source.Pos) bool {
	for _, lib := range tree.Libraries {
		if lib.Pos.Before(p) {
			return true
		}
	}
	return false
}
