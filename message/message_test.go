package message

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fooPOJO struct{ Name string }

func (fooPOJO) JavaClassName() string { return "com.example.Foo" }

func TestBuildArgumentsDescriptor(t *testing.T) {
	desc, values, err := BuildArguments([]Arg{
		{Type: "int", Value: 7},
		{Type: "com.example.Foo", Value: map[string]any{"name": "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "I"+"Lcom/example/Foo;", desc)
	require.Len(t, values, 2)
	assert.Equal(t, int32(7), values[0])
}

func TestBuildArgumentsEmpty(t *testing.T) {
	desc, values, err := BuildArguments(nil)
	require.NoError(t, err)
	assert.Equal(t, "", desc)
	assert.Empty(t, values)
}

func TestBuildArgumentsPrimitives(t *testing.T) {
	desc, values, err := BuildArguments([]Arg{
		Bool(true), Int(1), Short(2), Long(3), Double(4.5), Float(5.5),
	})
	require.NoError(t, err)
	assert.Equal(t, "ZISJDF", desc)
	assert.Equal(t, []any{true, int32(1), int16(2), int64(3), 4.5, float32(5.5)}, values)
}

func TestBuildArgumentsNonDottedClass(t *testing.T) {
	desc, _, err := BuildArguments([]Arg{{Type: "Foo", Value: "v"}})
	require.NoError(t, err)
	assert.Equal(t, "LFoo;", desc)
}

func TestBuildArgumentsInference(t *testing.T) {
	desc, _, err := BuildArguments([]Arg{
		{Value: "world"},
		{Value: int32(1)},
		{Value: 2},
		{Value: fooPOJO{Name: "a"}},
		{Value: map[string]string{"k": "v"}},
		{Value: []any{1, 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ljava/lang/String;IJLcom/example/Foo;Ljava/util/Map;Ljava/util/List;", desc)
}

func TestBuildArgumentsRejectsBadValues(t *testing.T) {
	_, _, err := BuildArguments([]Arg{{Value: nil}})
	require.Error(t, err)

	_, _, err = BuildArguments([]Arg{{Type: "int", Value: "seven"}})
	require.Error(t, err)

	_, _, err = BuildArguments([]Arg{{Type: "boolean", Value: 1}})
	require.Error(t, err)

	overflows := []Arg{
		{Type: "int", Value: int64(3_000_000_000)},
		{Type: "int", Value: int64(math.MinInt32) - 1},
		{Type: "short", Value: 70000},
		{Type: "short", Value: -40000},
		{Type: "long", Value: uint64(math.MaxUint64)},
	}
	for _, arg := range overflows {
		_, _, err = BuildArguments([]Arg{arg})
		require.ErrorContains(t, err, "overflows "+arg.Type, "%s=%v", arg.Type, arg.Value)
	}
}

func TestBuildArgumentsAcceptsBoundaryValues(t *testing.T) {
	_, values, err := BuildArguments([]Arg{
		{Type: "int", Value: int64(math.MaxInt32)},
		{Type: "int", Value: int64(math.MinInt32)},
		{Type: "short", Value: math.MaxInt16},
		{Type: "long", Value: uint64(math.MaxInt64)},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(math.MaxInt32), int32(math.MinInt32), int16(math.MaxInt16), int64(math.MaxInt64)}, values)
}

func TestNewInvocationAttachments(t *testing.T) {
	inv, err := NewInvocation(ServiceInfo{
		Path:    "com.example.HelloService",
		Version: "1.0.0",
		Timeout: 3 * time.Second,
	}, "sayHello", []Arg{String("world")})
	require.NoError(t, err)

	assert.Equal(t, "sayHello", inv.Method)
	assert.Equal(t, "Ljava/lang/String;", inv.ParameterTypes)
	assert.Equal(t, map[string]string{
		"path":      "com.example.HelloService",
		"interface": "com.example.HelloService",
		"timeout":   "3000",
		"version":   "1.0.0",
	}, inv.Attachments)
}

func TestNewInvocationDefaultTimeout(t *testing.T) {
	inv, err := NewInvocation(ServiceInfo{Path: "a.B"}, "m", nil)
	require.NoError(t, err)
	assert.Equal(t, "60000", inv.Attachments[AttachmentTimeout])
	assert.Equal(t, DefaultTimeout, inv.Timeout)
}

func TestNewInvocationValidation(t *testing.T) {
	_, err := NewInvocation(ServiceInfo{}, "m", nil)
	require.Error(t, err)
	_, err = NewInvocation(ServiceInfo{Path: "a.B"}, "", nil)
	require.Error(t, err)
}

func TestSplitParameterTypes(t *testing.T) {
	types, err := SplitParameterTypes("ILcom/example/Foo;Z[Ljava/lang/String;[I")
	require.NoError(t, err)
	assert.Equal(t, []string{"int", "com.example.Foo", "boolean", "[Ljava/lang/String;", "[I"}, types)

	types, err = SplitParameterTypes("")
	require.NoError(t, err)
	assert.Empty(t, types)

	_, err = SplitParameterTypes("Lcom/example/Foo")
	require.Error(t, err)
	_, err = SplitParameterTypes("Q")
	require.Error(t, err)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, VoidValue, Result{Void: true}.String())
	assert.Equal(t, `"hi"`, Result{Value: `"hi"`}.String())
}
