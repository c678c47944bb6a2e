package astgen

import (
	"strings"

	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/types"
)

// mangle builds the disambiguated registration key for a user function:
// its base name followed by one suffix per parameter type, so two
// declarations with the same name but different signatures never collide.
func mangle(name string, params []types.Tag) string {
	var b strings.Builder
	b.WriteString(name)
	for _, p := range params {
		b.WriteByte('_')
		b.WriteString(typeMangleSuffix(p))
	}
	return b.String()
}

func typeMangleSuffix(t types.Tag) string {
	suffix := t.Kind.String()
	if t.Kind == types.KindStruct {
		suffix = t.StructName
	}
	for i := 0; i < t.ArrayDepth; i++ {
		suffix = "arr" + suffix
	}
	return suffix
}

// builtinReturnType reports the fixed return type of the handful of
// builtins that astgen resolves directly rather than through a user or
// extern declaration.
func builtinReturnType(name string) (types.Tag, bool) {
	switch name {
	case "print", "println":
		return types.Void, true
	case "len", "int":
		return types.Int, true
	case "str", "input":
		return types.Str, true
	case "bool":
		return types.Bool, true
	case "float":
		return types.Float, true
	default:
		return types.Tag{}, false
	}
}

// resolveCall runs the overload-resolution cascade for a call to name with
// the given already-typed argument list: builtins first, then a registered
// extern, then struct-method dispatch keyed off the first argument's type,
// then an exact mangled match. The returned string is the name the lowering
// stage should actually target (an extern name, a "Struct:::method" key, or
// a mangled user-function key).
func (g *Generator) resolveCall(name string, argTypes []types.Tag, pos lexer.Position) (string, types.Tag, error) {
	if ret, ok := builtinReturnType(name); ok {
		return name, ret, nil
	}
	if sig, ok := g.externs[name]; ok {
		if err := checkArgTypes(name, sig.Params, argTypes, pos); err != nil {
			return "", types.Tag{}, err
		}
		return name, sig.Ret, nil
	}
	if len(argTypes) > 0 && argTypes[0].IsStruct() {
		candidate := argTypes[0].StructName + ":::" + name
		if sig, ok := g.funcSigs[candidate]; ok {
			if err := checkArgTypes(candidate, sig.Params, argTypes, pos); err != nil {
				return "", types.Tag{}, err
			}
			return candidate, sig.Ret, nil
		}
	}
	mangled := mangle(name, argTypes)
	if sig, ok := g.funcSigs[mangled]; ok {
		return mangled, sig.Ret, nil
	}
	return "", types.Tag{}, diag.New(diag.KindUndefinedFunction, pos, "undefined function %q for argument types %s", name, formatTypes(argTypes))
}

func checkArgTypes(name string, params, args []types.Tag, pos lexer.Position) error {
	if len(params) != len(args) {
		return diag.New(diag.KindArityMismatch, pos, "%q expects %d argument(s), got %d", name, len(params), len(args))
	}
	for i := range params {
		if !args[i].AssignableTo(params[i]) {
			return diag.New(diag.KindTypeMismatch, pos, "argument %d to %q: expected %s, got %s", i+1, name, params[i], args[i])
		}
	}
	return nil
}

func formatTypes(ts []types.Tag) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
