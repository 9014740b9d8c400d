package syntax

import (
	"slices"
	"strings"

	"raven/internal/lexer"
	"raven/internal/source"
	"raven/internal/token"
)

// Приоритеты бинарных операторов R, от слабых к сильным.
const (
	precLowest = iota
	precQuestion
	precEqAssign
	precLeftAssign
	precRightAssign
	precTilde
	precOr
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precSpecial
	precColon
	precUnary
	precPow
)

func binaryPrec(k token.Kind) (prec int, rightAssoc bool) {
	switch k {
	case token.Question:
		return precQuestion, false
	case token.EqAssign:
		return precEqAssign, true
	case token.LeftAssign, token.SuperAssign, token.ColonEq:
		return precLeftAssign, true
	case token.RightAssign, token.RightSuperAssign:
		return precRightAssign, false
	case token.Tilde:
		return precTilde, false
	case token.OrOr, token.Pipe:
		return precOr, false
	case token.AndAnd, token.Amp:
		return precAnd, false
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precCompare, false
	case token.Plus, token.Minus:
		return precAdd, false
	case token.Star, token.Slash:
		return precMul, false
	case token.Special, token.PipeGt:
		return precSpecial, false
	case token.Colon:
		return precColon, false
	case token.Caret:
		return precPow, true
	default:
		return 0, false
	}
}

type exprKind uint8

const (
	exprOther exprKind = iota
	exprIdent
	exprNs
	exprString
	exprConst
	exprFunc
	exprCall
)

// expr is what the walker remembers about a parsed expression.
type expr struct {
	kind  exprKind
	tok   token.Token // ident, ns-qualified name, string or constant
	pkg   string
	usage int
	fn    int
	// callee and nargs describe exprCall.
	callee string
	nargs  int
	start  uint32
}

func other(start uint32) expr {
	return expr{kind: exprOther, usage: -1, fn: -1, start: start}
}

type arg struct {
	name  string
	named bool
	val   expr
	set   bool
}

type parser struct {
	file    *source.File
	toks    []token.Token
	pos     int
	prevEnd uint32
	tree    *Tree
	fn      int
	args    int
	formula int
}

// Parse summarises an R file.
func Parse(file *source.File) *Tree {
	p := &parser{
		file: file,
		toks: lexer.Tokenize(file, lexer.Options{}),
		tree: &Tree{File: file},
		fn:   -1,
	}
	p.parseStatements(token.EOF)
	p.finish()
	return p.tree
}

// ===== навигация по токенам =====

func (p *parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *parser) next() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.prevEnd = tok.Span.End
	}
	return tok
}

func (p *parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

func (p *parser) skipNewlines() {
	for p.at(token.Newline) {
		p.next()
	}
}

func (p *parser) startPos(tok token.Token) source.Pos { return p.file.PosOf(tok.Span.Start) }
func (p *parser) endPos(tok token.Token) source.Pos   { return p.file.PosOf(tok.Span.End) }

func (p *parser) text(start, end uint32) string {
	if end < start {
		return ""
	}
	return string(p.file.Content[start:end])
}

// ===== инструкции =====

func (p *parser) parseStatements(end token.Kind) {
	for {
		for p.at(token.Newline) || p.at(token.Semicolon) {
			p.next()
		}
		tok := p.peek()
		if tok.Kind == token.EOF || tok.Kind == end {
			return
		}
		switch tok.Kind {
		case token.RParen, token.RBracket, token.RBrace:
			p.next()
			p.tree.Errors++
			continue
		}
		before := p.pos
		p.parseExpr(precLowest)
		if p.pos == before {
			p.next()
			p.tree.Errors++
		}
	}
}

// ===== выражения =====

func (p *parser) parseExpr(minPrec int) expr {
	left := p.parseUnary()
	for {
		op := p.peek()
		prec, rightAssoc := binaryPrec(op.Kind)
		if prec == 0 || prec < minPrec {
			return left
		}
		p.next()
		p.skipNewlines()
		nextPrec := prec + 1
		if rightAssoc {
			nextPrec = prec
		}

		switch op.Kind {
		case token.LeftAssign, token.SuperAssign, token.EqAssign:
			rhs := p.parseExpr(nextPrec)
			p.assign(left, rhs, op.Kind == token.SuperAssign)
			rhs.start = left.start
			left = rhs
		case token.RightAssign, token.RightSuperAssign:
			target := p.parseExpr(nextPrec)
			p.assign(target, left, op.Kind == token.RightSuperAssign)
			left = other(left.start)
		case token.Tilde:
			p.formula++
			p.parseExpr(nextPrec)
			p.formula--
			left = other(left.start)
		default:
			p.parseExpr(nextPrec)
			left = other(left.start)
		}
	}
}

func (p *parser) parseUnary() expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Minus, token.Plus:
		p.next()
		p.parseExpr(precUnary)
	case token.Bang:
		p.next()
		p.parseExpr(precNot)
	case token.Tilde:
		p.next()
		p.formula++
		p.parseExpr(precTilde)
		p.formula--
	case token.Question:
		p.next()
		p.parseExpr(precQuestion + 1)
	default:
		return p.parsePostfix(p.parsePrimary())
	}
	return other(tok.Span.Start)
}

func (p *parser) parsePrimary() expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.next()
		if p.at(token.NsGet) || p.at(token.NsGetInt) {
			p.next()
			name := p.peek()
			if name.Kind == token.Ident || name.Kind == token.StringLit {
				p.next()
			}
			return expr{kind: exprNs, tok: name, pkg: tok.Name(), usage: -1, fn: -1, start: tok.Span.Start}
		}
		return expr{kind: exprIdent, tok: tok, usage: p.addUsage(tok), fn: -1, start: tok.Span.Start}

	case token.StringLit:
		p.next()
		return expr{kind: exprString, tok: tok, usage: -1, fn: -1, start: tok.Span.Start}

	case token.NumberLit, token.KwTrue, token.KwFalse, token.KwNull, token.KwNA, token.KwInf, token.KwNaN:
		p.next()
		return expr{kind: exprConst, tok: tok, usage: -1, fn: -1, start: tok.Span.Start}

	case token.LParen:
		p.next()
		p.skipNewlines()
		inner := p.parseExpr(precLowest)
		p.skipNewlines()
		p.eat(token.RParen)
		if inner.kind == exprFunc {
			inner.start = tok.Span.Start
			return inner
		}
		return other(tok.Span.Start)

	case token.LBrace:
		p.parseBlock()
		return other(tok.Span.Start)

	case token.KwFunction, token.Backslash:
		return p.parseFunction()

	case token.KwIf:
		p.parseIf()
	case token.KwFor:
		p.parseFor()
	case token.KwWhile:
		p.next()
		p.parseCond()
		p.parseBody()
	case token.KwRepeat:
		p.next()
		p.parseBody()
	case token.KwBreak, token.KwNext:
		p.next()
	}
	return other(tok.Span.Start)
}

func (p *parser) parsePostfix(e expr) expr {
	for {
		switch p.peek().Kind {
		case token.LParen:
			e = p.parseCall(e)
		case token.LBracket:
			p.next()
			p.parseArgs(token.RBracket, nil)
			e = other(e.start)
		case token.LDoubleBracket:
			p.next()
			p.parseArgs(token.RBracket, nil)
			p.eat(token.RBracket)
			e = other(e.start)
		case token.Dollar, token.At:
			p.next()
			switch p.peek().Kind {
			case token.Ident, token.StringLit:
				p.next()
			default:
				if p.peek().IsKeyword() {
					p.next()
				}
			}
			e = other(e.start)
		default:
			return e
		}
	}
}

func (p *parser) parseBlock() {
	lb := p.next()
	p.parseStatements(token.RBrace)
	p.eat(token.RBrace)
	p.tree.Blocks = append(p.tree.Blocks, Block{
		Start: p.startPos(lb),
		End:   p.file.PosOf(p.prevEnd),
	})
}

func (p *parser) parseBody() {
	p.skipNewlines()
	p.parseExpr(precLowest)
}

func (p *parser) parseCond() {
	if !p.eat(token.LParen) {
		return
	}
	p.skipNewlines()
	p.parseExpr(precLowest)
	p.skipNewlines()
	p.eat(token.RParen)
}

func (p *parser) parseIf() {
	p.next()
	p.parseCond()
	p.parseBody()
	save, saveEnd := p.pos, p.prevEnd
	p.skipNewlines()
	if p.eat(token.KwElse) {
		p.parseBody()
		return
	}
	p.pos, p.prevEnd = save, saveEnd
}

func (p *parser) parseFor() {
	p.next()
	if p.eat(token.LParen) {
		if it := p.peek(); it.Kind == token.Ident {
			p.next()
			p.tree.Defs = append(p.tree.Defs, Def{
				Name:  it.Name(),
				Kind:  DefVariable,
				Pos:   p.startPos(it),
				End:   p.endPos(it),
				Func:  p.fn,
				Value: -1,
			})
		}
		p.eat(token.KwIn)
		p.skipNewlines()
		p.parseExpr(precLowest)
		p.skipNewlines()
		p.eat(token.RParen)
	}
	p.parseBody()
}

// parseFunction handles both `function(...) body` and `\(...) body`.
func (p *parser) parseFunction() expr {
	kw := p.next()
	fi := len(p.tree.Funcs)
	p.tree.Funcs = append(p.tree.Funcs, Func{Parent: p.fn})
	outer := p.fn

	var params []Param
	paramText := ""
	if lp := p.peek(); lp.Kind == token.LParen {
		p.next()
		p.fn = fi
		params = p.parseParams()
		p.fn = outer
		paramText = p.text(lp.Span.Start, p.prevEnd)
	}

	p.skipNewlines()
	bodyStart := p.peek()
	p.fn = fi
	p.parseExpr(precLowest)
	p.fn = outer

	f := &p.tree.Funcs[fi]
	f.Params = params
	f.ParamText = paramText
	f.Start = p.startPos(bodyStart)
	f.End = p.file.PosOf(p.prevEnd)
	if f.End.Before(f.Start) {
		f.End = f.Start
	}
	return expr{kind: exprFunc, usage: -1, fn: fi, start: kw.Span.Start}
}

func (p *parser) parseParams() []Param {
	var params []Param
	for {
		p.skipNewlines()
		tok := p.peek()
		switch tok.Kind {
		case token.RParen:
			p.next()
			return params
		case token.EOF, token.LBrace:
			return params
		case token.Comma:
			p.next()
			continue
		case token.Ident:
			p.next()
			param := Param{Name: tok.Name(), Pos: p.startPos(tok)}
			if p.eat(token.EqAssign) {
				p.skipNewlines()
				start := p.peek().Span.Start
				p.parseExpr(precEqAssign + 1)
				param.Default = strings.TrimSpace(p.text(start, p.prevEnd))
			}
			params = append(params, param)
		default:
			p.next()
			p.tree.Errors++
		}
	}
}

func (p *parser) parseCall(head expr) expr {
	lp := p.next()
	name := ""
	switch head.kind {
	case exprIdent:
		name = head.tok.Name()
		if head.usage >= 0 {
			p.tree.Usages[head.usage].Call = true
		}
	case exprNs:
		name = head.pkg + "::" + head.tok.Name()
	}

	site := &CallSite{Name: name, Pos: p.file.PosOf(head.start), LParen: p.startPos(lp)}
	args := p.parseArgs(token.RParen, site)
	site.End = p.file.PosOf(p.prevEnd)
	if name != "" {
		p.tree.Calls = append(p.tree.Calls, *site)
	}

	fname := name
	if head.kind == exprNs {
		fname = ""
		if head.pkg == "base" {
			fname = head.tok.Name()
		}
	}
	p.special(fname, head, args)
	return expr{kind: exprCall, callee: name, nargs: len(args), usage: -1, fn: -1, start: head.start}
}

// parseArgs reads a comma separated argument list up to closer.
func (p *parser) parseArgs(closer token.Kind, site *CallSite) []arg {
	p.args++
	defer func() { p.args-- }()

	var out []arg
	var cur arg
	seen := false
	for {
		p.skipNewlines()
		tok := p.peek()
		switch tok.Kind {
		case token.EOF, token.RBrace:
			if seen {
				out = append(out, cur)
			}
			return out
		case closer:
			p.next()
			if seen {
				out = append(out, cur)
			}
			return out
		case token.Comma:
			p.next()
			if site != nil {
				site.Commas = append(site.Commas, p.startPos(tok))
			}
			out = append(out, cur)
			cur = arg{}
			seen = true
			continue
		}
		seen = true

		if !cur.named && (tok.Kind == token.Ident || tok.Kind == token.StringLit) && p.peekAt(1).Kind == token.EqAssign {
			p.next()
			p.next()
			cur.named = true
			cur.name = tok.Name()
			if tok.Kind == token.StringLit {
				cur.name, _ = tok.StringValue()
			}
			continue
		}

		before := p.pos
		cur.val = p.parseExpr(precLowest)
		cur.set = true
		if p.pos == before {
			p.next()
			p.tree.Errors++
		}
	}
}

// ===== записи =====

func (p *parser) addUsage(tok token.Token) int {
	name := tok.Name()
	if name == "..." || isDotDotN(name) {
		return -1
	}
	p.tree.Usages = append(p.tree.Usages, Usage{
		Name:      name,
		Pos:       p.startPos(tok),
		End:       p.endPos(tok),
		InArgs:    p.args > 0,
		InFormula: p.formula > 0,
		Func:      p.fn,
	})
	return len(p.tree.Usages) - 1
}

func (p *parser) dropUsage(i int) {
	if i >= 0 {
		p.tree.Usages[i].Name = ""
	}
}

func (p *parser) assign(target, value expr, super bool) {
	if target.kind != exprIdent {
		return
	}
	p.dropUsage(target.usage)
	d := Def{
		Name:  target.tok.Name(),
		Kind:  DefVariable,
		Pos:   p.startPos(target.tok),
		End:   p.endPos(target.tok),
		Func:  p.fn,
		Value: -1,
	}
	if super {
		d.Func = -1
	}
	if value.kind == exprFunc {
		d.Kind = DefFunction
		d.Value = value.fn
		d.Signature = p.tree.Funcs[value.fn].Signature(d.Name)
	}
	p.tree.Defs = append(p.tree.Defs, d)
}

func (p *parser) finish() {
	usages := p.tree.Usages[:0]
	for _, u := range p.tree.Usages {
		if u.Name != "" {
			usages = append(usages, u)
		}
	}
	p.tree.Usages = usages

	slices.SortStableFunc(p.tree.Defs, func(a, b Def) int { return a.Pos.Compare(b.Pos) })
	slices.SortStableFunc(p.tree.Usages, func(a, b Usage) int { return a.Pos.Compare(b.Pos) })
	slices.SortStableFunc(p.tree.Sources, func(a, b SourceCall) int { return a.Pos.Compare(b.Pos) })
	slices.SortStableFunc(p.tree.Calls, func(a, b CallSite) int { return a.Pos.Compare(b.Pos) })
	slices.SortStableFunc(p.tree.Blocks, func(a, b Block) int { return a.Start.Compare(b.Start) })
}

func isDotDotN(name string) bool {
	if len(name) < 3 || name[0] != '.' || name[1] != '.' {
		return false
	}
	for _, c := range name[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
