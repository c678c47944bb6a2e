package session

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithLoggerAssignsRunID(t *testing.T) {
	s, err := NewWithLogger(zap.NewNop())
	require.NoError(t, err)
	require.NotEqual(t, [16]byte{}, [16]byte(s.RunID))
}

func TestModuleContentHashIsStable(t *testing.T) {
	a, err := ModuleContentHash([]byte("fn main() {}"))
	require.NoError(t, err)
	b, err := ModuleContentHash([]byte("fn main() {}"))
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := ModuleContentHash([]byte("fn other() {}"))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestLoadModuleDedupesConcurrentLoads(t *testing.T) {
	s, err := NewWithLogger(zap.NewNop())
	require.NoError(t, err)

	var calls int32
	loader := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "loaded", nil
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_, _ = s.LoadModule("std.math", loader)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	require.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
}

func TestCacheGetPut(t *testing.T) {
	s, err := NewWithLogger(zap.NewNop())
	require.NoError(t, err)
	hash, err := ModuleContentHash([]byte("content"))
	require.NoError(t, err)

	_, ok := s.CacheGet(hash)
	require.False(t, ok)

	s.CachePut(hash, 42)
	v, ok := s.CacheGet(hash)
	require.True(t, ok)
	require.Equal(t, 42, v)
}
