package lower

import (
	"strings"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

// normalizeRegions splits every protected region whose try-part suspends.
//
// A region `try { S0; yield; S1; ...; yield; SN } catch e { C } finally { F }`
// becomes a chain of simpler regions with the suspension points between them:
//
//	_doneK = false
//	try { S0; _doneK = true } catch e { C; goto _TRYEND_K } finally { if !_doneK { F } }
//	yield
//	_doneK = false
//	try { S1; _doneK = true } catch e { C; goto _TRYEND_K } finally { if !_doneK { F } }
//	...
//	try { SN } catch e { C } finally { F }
//	label _TRYEND_K
//
// The flag limits F to abrupt exits from the inner segments, so F runs
// exactly once however the original region is left. The label and flag are
// omitted when there is no catch-part or no finally-part respectively.
//
// A region split inside the try-part of another region cannot jump forward:
// its label would land in a later segment of the enclosing region. There the
// catch-parts set a skip flag instead, and everything after the first
// segment is guarded by it:
//
//	_skipK = false
//	_doneK = false
//	try { S0; _doneK = true } catch e { C; _skipK = true } finally { if !_doneK { F } }
//	if !_skipK { yield }
//	if !_skipK { _doneK = false; try { S1; _doneK = true } catch e { ... } finally { ... } }
//	...
//	if !_skipK { try { SN } catch e { C } finally { F } }
//
// The enclosing region splits at the guarded suspension points.
// The region after a suspension point is recorded as its continuation: code
// that must run on resume (the resume binding and the exception check) goes
// there so that the catch-part covers it.
func (l *lowering) normalizeRegions(list []ast.Stmt) ([]ast.Stmt, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		var err error
		switch s := s.(type) {
		case *ast.If:
			if s.Then, err = l.normalizeRegions(s.Then); err != nil {
				return nil, err
			}
			if s.Else, err = l.normalizeRegions(s.Else); err != nil {
				return nil, err
			}
		case *ast.While:
			if s.Body, err = l.normalizeRegions(s.Body); err != nil {
				return nil, err
			}
		case *ast.Try:
			chain, err := l.splitRegion(s)
			if err != nil {
				return nil, err
			}
			out = append(out, chain...)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (l *lowering) splitRegion(t *ast.Try) ([]ast.Stmt, error) {
	if ast.ListContainsYield(t.Finally) {
		return nil, l.structural(errors.KindYieldInFinally, firstYieldLine(t.Finally, t.Line),
			"suspension point inside a finally-part")
	}
	if ast.ListContainsYield(t.Catch) {
		return nil, l.structural(errors.KindYieldInCatch, firstYieldLine(t.Catch, t.Line),
			"suspension point inside a catch-part")
	}

	nested := l.nested > 0

	// Inner regions first: their suspension points surface at this level.
	l.nested++
	body, err := l.normalizeRegions(t.Body)
	l.nested--
	if err != nil {
		return nil, err
	}
	t.Body = body
	if !ast.ListContainsYield(body) {
		return []ast.Stmt{t}, nil
	}

	var (
		segments [][]ast.Stmt
		points   []ast.Stmt
		current  []ast.Stmt
	)
	for _, s := range body {
		if _, ok := suspension(s); ok {
			segments = append(segments, current)
			points = append(points, s)
			current = nil
			continue
		}
		if ast.ContainsYield(s) {
			return nil, l.structural(errors.KindYieldNotTopLevel, firstYieldLine([]ast.Stmt{s}, t.Line),
				"suspension point nested inside a block of a try-part")
		}
		current = append(current, s)
	}
	segments = append(segments, current)

	hasFinally := len(t.Finally) > 0
	var done, end, skip string
	if hasFinally {
		done = "_done" + l.fresh("done")
	}
	switch {
	case t.HasCatch && nested:
		skip = skipPrefix + l.fresh("skip")
	case t.HasCatch:
		end = tryEndPrefix + l.fresh("try")
	}
	guard := func(list ...ast.Stmt) []ast.Stmt {
		if skip == "" {
			return list
		}
		return []ast.Stmt{&ast.If{
			Cond: &ast.Unary{Op: "!", X: ast.Name(skip)},
			Then: list,
		}}
	}

	regions := make([]*ast.Try, len(segments))
	for i, seg := range segments {
		regions[i] = l.segmentRegion(t, seg, i == len(segments)-1, done, end, skip)
	}

	var out []ast.Stmt
	if skip != "" {
		out = append(out, ast.Set(ast.Name(skip), ast.Const(false)))
	}
	for i, r := range regions {
		// nothing to protect before the first suspension point
		if i > 0 || len(segments[0]) > 0 {
			var part []ast.Stmt
			if r.Finally != nil && i < len(regions)-1 {
				part = append(part, ast.Set(ast.Name(done), ast.Const(false)))
			}
			part = append(part, r)
			if i > 0 {
				part = guard(part...)
			}
			out = append(out, part...)
		}
		if i < len(points) {
			out = append(out, guard(points[i])...)
			// an inner region already split at this point is the
			// innermost continuation
			y, _ := suspension(points[i])
			if _, ok := l.continuations[y]; !ok {
				l.continuations[y] = regions[i+1]
			}
		}
	}
	if end != "" {
		out = append(out, &ast.Label{Name: end})
	}
	return out, nil
}

// suspension returns the suspension point carried by s, looking through the
// skip guards of a nested region split earlier.
func suspension(s ast.Stmt) (*ast.Yield, bool) {
	if y, ok := ast.AsYield(s); ok {
		return y, true
	}
	g, ok := s.(*ast.If)
	if !ok || len(g.Then) != 1 || len(g.Else) != 0 {
		return nil, false
	}
	u, ok := g.Cond.(*ast.Unary)
	if !ok || u.Op != "!" {
		return nil, false
	}
	if id, ok := u.X.(*ast.Ident); !ok || !strings.HasPrefix(id.Name, skipPrefix) {
		return nil, false
	}
	return suspension(g.Then[0])
}

func (l *lowering) segmentRegion(t *ast.Try, seg []ast.Stmt, last bool, done, end, skip string) *ast.Try {
	r := &ast.Try{
		Body:     seg,
		HasCatch: t.HasCatch,
		CatchVar: t.CatchVar,
		Catch:    ast.CloneStmts(t.Catch),
		Line:     t.Line,
	}
	if last {
		r.Finally = ast.CloneStmts(t.Finally)
		return r
	}
	switch {
	case skip != "":
		r.Catch = append(r.Catch, ast.Set(ast.Name(skip), ast.Const(true)))
	case end != "":
		r.Catch = append(r.Catch, &ast.Goto{Label: end})
	}
	if done != "" {
		r.Body = append(r.Body, ast.Set(ast.Name(done), ast.Const(true)))
		r.Finally = []ast.Stmt{&ast.If{
			Cond: &ast.Unary{Op: "!", X: ast.Name(done)},
			Then: ast.CloneStmts(t.Finally),
		}}
	}
	return r
}

func firstYieldLine(list []ast.Stmt, fallback int) int {
	line := 0
	ast.InspectList(list, func(n ast.Node) bool {
		if line > 0 {
			return false
		}
		if y, ok := n.(*ast.Yield); ok && y.Line > 0 {
			line = y.Line
			return false
		}
		return true
	})
	if line == 0 {
		return fallback
	}
	return line
}
