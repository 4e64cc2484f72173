package tably

// Env captures the enclosing lexical scope at the call site: bindings
// from names to value vectors, with optional nesting. Verbs evaluate
// expressions against the table's columns first and fall back to the
// environment according to the context's shadowing rules.
type Env struct {
	vars   map[string]Vector
	parent *Env
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Vector)}
}

// Child creates a nested environment whose lookups fall through to e.
func (e *Env) Child() *Env {
	return &Env{vars: make(map[string]Vector), parent: e}
}

// Bind adds a scalar binding. Supported types mirror Lit.
func (e *Env) Bind(name string, value interface{}) *Env {
	switch v := value.(type) {
	case int:
		e.vars[name] = Vector{IntValue(int64(v))}
	case int64:
		e.vars[name] = Vector{IntValue(v)}
	case float64:
		e.vars[name] = Vector{FloatValue(v)}
	case string:
		e.vars[name] = Vector{StrValue(v)}
	case bool:
		e.vars[name] = Vector{BoolValue(v)}
	case Vector:
		e.vars[name] = v
	default:
		panic("unsupported binding type")
	}
	return e
}

// BindVector adds a vector binding.
func (e *Env) BindVector(name string, v Vector) *Env {
	e.vars[name] = v
	return e
}

// Lookup resolves a name, walking outward through parents.
func (e *Env) Lookup(name string) (Vector, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}
