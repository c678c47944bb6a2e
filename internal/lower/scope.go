package lower

import "github.com/hassan/toyc/internal/tir"

// varScope is a lexical chain of name-to-SsaValue bindings, one link per
// block: each scope is a heap-allocated map with a pointer to its parent,
// not a push/pop vector of maps. Lifetime here is strictly LIFO.
type varScope struct {
	vars   map[string]tir.SsaValue
	parent *varScope
}

func newVarScope(parent *varScope) *varScope {
	return &varScope{vars: make(map[string]tir.SsaValue), parent: parent}
}

// define binds name in this scope, shadowing any outer binding — used for
// `let`, which always introduces a fresh value at the innermost scope.
func (s *varScope) define(name string, v tir.SsaValue) {
	s.vars[name] = v
}

func (s *varScope) lookup(name string) (tir.SsaValue, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return tir.SsaValue{}, false
}

// rebind updates name's binding wherever it was originally defined,
// walking outward — used for reassignment, which must move the owning
// scope's binding to a new SsaValue rather than shadow it locally.
// Reports whether an owning scope was found.
func (s *varScope) rebind(name string, v tir.SsaValue) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return true
		}
	}
	return false
}
