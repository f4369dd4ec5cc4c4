// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heapcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteArenaExtend(t *testing.T) {
	a := NewByteArena(256)
	require.Equal(t, uintptr(256), a.Cap())
	require.Equal(t, uintptr(0), a.Used())

	p1, err := a.Extend(32)
	require.NoError(t, err)
	require.Equal(t, a.Low(), p1)

	p2, err := a.Extend(32)
	require.NoError(t, err)
	require.Equal(t, uintptr(p1)+32, uintptr(p2))
	require.Equal(t, uintptr(64), a.Used())
}

func TestByteArenaExhaustion(t *testing.T) {
	a := NewByteArena(16)
	_, err := a.Extend(16)
	require.NoError(t, err)
	_, err = a.Extend(1)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestByteArenaBounds(t *testing.T) {
	a := NewByteArena(64)
	_, err := a.Extend(64)
	require.NoError(t, err)
	require.Equal(t, uintptr(a.Low())+63, uintptr(a.High()))
}
