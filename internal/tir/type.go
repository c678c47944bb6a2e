// Package tir implements the typed SSA intermediate representation that
// lower.Lowerer emits and viewer.Viewer later queries on behalf of
// the downstream lifetime-analysis pass.
package tir

import "github.com/hassan/toyc/internal/types"

// Type is the lowered (machine-shaped) type every SsaValue and ABI
// parameter/return carries. It's a deliberately small set: the runtime ABI
// only ever moves words, doubles, booleans, and opaque pointers.
type Type int

const (
	Void Type = iota
	I64
	F64
	I1
	I8PTR
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case I64:
		return "i64"
	case F64:
		return "f64"
	case I1:
		return "i1"
	case I8PTR:
		return "i8*"
	default:
		return "?"
	}
}

// TypeTagToType lowers a source-level types.Tag to its TIR representation.
// Every array, string, struct, and the Any wildcard lower to a bare pointer;
// only scalars keep a distinct representation.
func TypeTagToType(t types.Tag) Type {
	if t.IsArray() || t.IsStruct() {
		return I8PTR
	}
	switch t.Kind {
	case types.KindInt:
		return I64
	case types.KindFloat:
		return F64
	case types.KindBool:
		return I1
	case types.KindStr:
		return I8PTR
	case types.KindAny:
		return I8PTR
	case types.KindVoid:
		return Void
	default:
		return Void
	}
}

// TypeCode is the runtime type tag baked into print/array-builtin calls, so
// the extern C side can dispatch on value shape without its own type
// system. The numbering is part of the fixed ABI contract in section 6.
type TypeCode int

const (
	TypeCodeStr TypeCode = iota
	TypeCodeBool
	TypeCodeInt
	TypeCodeFloat
	TypeCodeStrArr
	TypeCodeBoolArr
	TypeCodeIntArr
	TypeCodeFloatArr
	TypeCodeStructArr
)

// InjectTypeCode returns the runtime type code for t, used to parameterize
// print/println and the array externs, which branch on the dynamic shape of
// their argument.
func InjectTypeCode(t types.Tag) TypeCode {
	if t.IsArray() {
		switch t.Kind {
		case types.KindStr:
			return TypeCodeStrArr
		case types.KindBool:
			return TypeCodeBoolArr
		case types.KindInt:
			return TypeCodeIntArr
		case types.KindFloat:
			return TypeCodeFloatArr
		case types.KindStruct:
			return TypeCodeStructArr
		default:
			return TypeCodeIntArr
		}
	}
	switch t.Kind {
	case types.KindStr:
		return TypeCodeStr
	case types.KindBool:
		return TypeCodeBool
	case types.KindFloat:
		return TypeCodeFloat
	default:
		return TypeCodeInt
	}
}
