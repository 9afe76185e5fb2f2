package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMarshalUnmarshal(t *testing.T) {
	data, err := Marshal(sample{Name: "piano", Count: 3})
	require.NoError(t, err)

	var decoded sample
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, "piano", decoded.Name)
	assert.Equal(t, 3, decoded.Count)
}

func TestMarshalToString(t *testing.T) {
	s, err := MarshalToString(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, s)
}

func TestUnmarshalFromString(t *testing.T) {
	var decoded sample
	require.NoError(t, UnmarshalFromString(`{"name":"drums","count":2}`, &decoded))
	assert.Equal(t, "drums", decoded.Name)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(sample{Name: "bass"}))

	var decoded sample
	require.NoError(t, NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, "bass", decoded.Name)
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(sample{Name: "x"}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n")
}
