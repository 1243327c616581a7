package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackFIFOAcrossResize(t *testing.T) {
	s := NewStack[int](2)
	for i := 0; i < 5; i++ {
		s.Push(i)
	}
	require.Equal(t, 5, s.Len())
	for i := 0; i < 5; i++ {
		v, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := s.Pop()
	assert.False(t, ok)
}

func TestStackWrapAround(t *testing.T) {
	s := NewStack[string](3)
	s.Push("a")
	s.Push("b")
	v, _ := s.Pop()
	assert.Equal(t, "a", v)
	s.Push("c")
	s.Push("d")
	s.Push("e")

	var got []string
	for s.Len() > 0 {
		v, _ := s.Pop()
		got = append(got, v)
	}
	assert.Equal(t, []string{"b", "c", "d", "e"}, got)
}
