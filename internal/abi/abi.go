// Package abi describes the fixed C runtime every lowered program links
// against: a small set of extern functions for allocation, arrays,
// strings, and I/O, each with a declared signature and an allocates flag
// the TIR builder uses to decide whether a call site needs heap-allocation
// tracking.
package abi

import "github.com/hassan/toyc/internal/tir"

// Entry is one function in the fixed runtime ABI table.
type Entry struct {
	Name       string
	ParamTypes []tir.Type
	RetType    tir.Type
	Allocates  bool
}

// Table lists every extern function the runtime provides. Names and
// shapes are fixed by the C runtime contract; lowering never invents new
// extern names beyond this set.
var Table = []Entry{
	{Name: "toy_malloc", ParamTypes: []tir.Type{tir.I64}, RetType: tir.I64, Allocates: true},
	{Name: "toy_malloc_arr", ParamTypes: []tir.Type{tir.I64, tir.I64}, RetType: tir.I8PTR, Allocates: true},
	{Name: "toy_free", ParamTypes: []tir.Type{tir.I8PTR}, RetType: tir.Void, Allocates: false},
	{Name: "toy_read_from_arr", ParamTypes: []tir.Type{tir.I8PTR, tir.I64, tir.I64}, RetType: tir.I64, Allocates: false},
	{Name: "toy_write_to_arr", ParamTypes: []tir.Type{tir.I8PTR, tir.I64, tir.I64, tir.I64}, RetType: tir.Void, Allocates: false},
	{Name: "toy_arrlen", ParamTypes: []tir.Type{tir.I8PTR}, RetType: tir.I64, Allocates: false},
	{Name: "toy_strlen", ParamTypes: []tir.Type{tir.I8PTR}, RetType: tir.I64, Allocates: false},
	{Name: "toy_strequal", ParamTypes: []tir.Type{tir.I8PTR, tir.I8PTR}, RetType: tir.I1, Allocates: false},
	{Name: "toy_concat", ParamTypes: []tir.Type{tir.I8PTR, tir.I8PTR}, RetType: tir.I8PTR, Allocates: true},
	// toy_println/toy_print take the value itself (whose real type varies
	// with the call site: I64, F64, or I8PTR), a type code, and an array
	// dimension; ParamTypes' first slot is descriptive only; lowering
	// decides the actual argument width per call.
	{Name: "toy_println", ParamTypes: []tir.Type{tir.I64, tir.I64, tir.I64}, RetType: tir.Void, Allocates: false},
	{Name: "toy_print", ParamTypes: []tir.Type{tir.I64, tir.I64, tir.I64}, RetType: tir.Void, Allocates: false},
	{Name: "toy_int_to_float", ParamTypes: []tir.Type{tir.I64}, RetType: tir.F64, Allocates: false},
	{Name: "toy_float_to_int", ParamTypes: []tir.Type{tir.F64}, RetType: tir.I64, Allocates: false},
	{Name: "toy_int_to_str", ParamTypes: []tir.Type{tir.I64}, RetType: tir.I8PTR, Allocates: true},
	{Name: "toy_float_to_str", ParamTypes: []tir.Type{tir.F64}, RetType: tir.I8PTR, Allocates: true},
	{Name: "toy_str_to_int", ParamTypes: []tir.Type{tir.I8PTR}, RetType: tir.I64, Allocates: false},
	{Name: "toy_str_to_float", ParamTypes: []tir.Type{tir.I8PTR}, RetType: tir.F64, Allocates: false},
	{Name: "toy_read_input", ParamTypes: nil, RetType: tir.I8PTR, Allocates: true},
}

// RegisterAll wires every ABI entry into a tir.Builder's extern table.
func RegisterAll(b *tir.Builder) {
	for _, e := range Table {
		b.RegisterExtern(e.Name, e.ParamTypes, e.RetType, e.Allocates)
	}
}

// Lookup finds an ABI entry by name.
func Lookup(name string) (Entry, bool) {
	for _, e := range Table {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
