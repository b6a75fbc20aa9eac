package main

import (
	"testing"

	"github.com/534591395/zoodubbo/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArg(t *testing.T) {
	cases := map[string]message.Arg{
		"world":                      message.String("world"),
		"java.lang.String=a=b":       message.String("a=b"),
		"int=3":                      {Type: "int", Value: int64(3)},
		"boolean=true":               {Type: "boolean", Value: true},
		"double=1.5":                 {Type: "double", Value: 1.5},
		`java.util.Map={"k":"v"}`:    {Type: "java.util.Map", Value: map[string]any{"k": "v"}},
		"com.example.Token=not-json": {Type: "com.example.Token", Value: "not-json"},
	}
	for raw, want := range cases {
		got, err := parseArg(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parseArg("int=three")
	require.Error(t, err)
}

func TestEchoService(t *testing.T) {
	e := &EchoService{}
	v, err := e.SayHello([]any{"world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)

	_, err = e.Echo(nil)
	require.Error(t, err)

	v, err = e.Ping(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
