package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructFieldOrderIsCanonical(t *testing.T) {
	a := NewStruct("Point", []Field{{"y", Int}, {"x", Int}})
	b := NewStruct("Point", []Field{{"x", Int}, {"y", Int}})
	require.True(t, a.Equals(b))
	require.Equal(t, "x", a.Fields[0].Name)
	require.Equal(t, "y", a.Fields[1].Name)
}

func TestArrayOfAndElemType(t *testing.T) {
	arr := ArrayOf(Int)
	require.True(t, arr.IsArray())
	require.Equal(t, 1, arr.ArrayDepth)
	require.True(t, ElemType(arr).Equals(Int))
}

func TestEqualsRejectsMismatchedStructs(t *testing.T) {
	a := NewStruct("Point", []Field{{"x", Int}, {"y", Int}})
	b := NewStruct("Point", []Field{{"x", Int}, {"y", Float}})
	require.False(t, a.Equals(b))
}

func TestAssignableToAnyWildcard(t *testing.T) {
	require.True(t, Int.AssignableTo(Any))
	require.True(t, Str.AssignableTo(Any))
	require.False(t, Int.AssignableTo(Bool))
}

func TestTagString(t *testing.T) {
	require.Equal(t, "int", Int.String())
	require.Equal(t, "[]int", ArrayOf(Int).String())
	require.Equal(t, "[][]str", ArrayOf(ArrayOf(Str)).String())

	p := NewStruct("Point", []Field{{"x", Int}, {"y", Int}})
	require.Equal(t, "Point", p.String())
}

func TestFieldType(t *testing.T) {
	p := NewStruct("Point", []Field{{"x", Int}, {"y", Float}})
	ft, ok := p.FieldType("y")
	require.True(t, ok)
	require.True(t, ft.Equals(Float))

	_, ok = p.FieldType("z")
	require.False(t, ok)
}
