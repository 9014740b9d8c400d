package syntax

import (
	"raven/internal/source"
	"raven/internal/token"
)

// special records the calls that matter to cross-file analysis.
func (p *parser) special(name string, head expr, args []arg) {
	switch name {
	case "source", "sys.source":
		p.sourceCall(name == "sys.source", head, args)
	case "assign":
		p.assignCall(head, args)
	case "library", "require", "requireNamespace", "loadNamespace":
		p.libraryCall(args)
	}
}

func (p *parser) sourceCall(isSys bool, head expr, args []arg) {
	file, ok := namedOrFirst(args, "file")
	if !ok || file.kind != exprString {
		return
	}
	path, ok := file.tok.StringValue()
	if !ok {
		return
	}
	call := SourceCall{
		Path: path,
		Pos:  p.file.PosOf(head.start),
		End:  p.file.PosOf(p.prevEnd),
		PathRange: source.Range{
			Start: p.startPos(file.tok),
			End:   p.endPos(file.tok),
		},
		IsSys: isSys,
		Func:  p.fn,
	}
	if v, ok := named(args, "local"); ok {
		call.Local = boolValue(v)
	}
	if v, ok := named(args, "chdir"); ok {
		call.Chdir = boolValue(v)
	}
	if isSys {
		if v, ok := named(args, "envir"); ok {
			call.GlobalEnv = isGlobalEnv(v)
		}
	} else {
		call.GlobalEnv = true
	}
	p.tree.Sources = append(p.tree.Sources, call)
}

// assignCall handles assign("name", value) with a literal name only.
func (p *parser) assignCall(head expr, args []arg) {
	x, ok := namedOrFirst(args, "x")
	if !ok || x.kind != exprString {
		return
	}
	name, ok := x.tok.StringValue()
	if !ok || name == "" {
		return
	}
	d := Def{
		Name:  name,
		Kind:  DefVariable,
		Pos:   p.file.PosOf(head.start),
		End:   p.endPos(x.tok),
		Func:  p.fn,
		Value: -1,
	}
	if v, ok := positional(args, 1, "value"); ok && v.kind == exprFunc {
		d.Kind = DefFunction
		d.Value = v.fn
		d.Signature = p.tree.Funcs[v.fn].Signature(name)
	}
	p.tree.Defs = append(p.tree.Defs, d)
}

func (p *parser) libraryCall(args []arg) {
	pkg, ok := namedOrFirst(args, "package")
	if !ok {
		return
	}
	var name string
	switch pkg.kind {
	case exprIdent:
		name = pkg.tok.Name()
		p.dropUsage(pkg.usage)
	case exprString:
		name, _ = pkg.tok.StringValue()
	}
	if name == "" {
		return
	}
	p.tree.Libraries = append(p.tree.Libraries, Library{Name: name, Pos: p.startPos(pkg.tok)})
}

// namedOrFirst returns the argument called name, else the first unnamed one.
func namedOrFirst(args []arg, name string) (expr, bool) {
	if v, ok := named(args, name); ok {
		return v, true
	}
	for _, a := range args {
		if !a.named && a.set {
			return a.val, true
		}
	}
	return expr{}, false
}

// positional returns the argument called name, else the idx-th unnamed one.
func positional(args []arg, idx int, name string) (expr, bool) {
	if v, ok := named(args, name); ok {
		return v, true
	}
	n := 0
	for _, a := range args {
		if a.named {
			continue
		}
		if n == idx {
			return a.val, a.set
		}
		n++
	}
	return expr{}, false
}

func named(args []arg, name string) (expr, bool) {
	for _, a := range args {
		if a.named && a.name == name && a.set {
			return a.val, true
		}
	}
	return expr{}, false
}

// boolValue accepts TRUE, T, FALSE and F; anything else is false.
func boolValue(e expr) bool {
	switch e.kind {
	case exprConst:
		return e.tok.Kind == token.KwTrue
	case exprIdent:
		return e.tok.Text == "T"
	}
	return false
}

func isGlobalEnv(e expr) bool {
	switch e.kind {
	case exprCall:
		return e.callee == "globalenv" && e.nargs == 0
	case exprIdent:
		return e.tok.Text == ".GlobalEnv"
	}
	return false
}
