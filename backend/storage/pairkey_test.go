// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKey_OrderIndependent(t *testing.T) {
	req := require.New(t)

	req.Equal(PairKey("alice", "bob"), PairKey("bob", "alice"))
	req.Equal("alice:bob", PairKey("bob", "alice"))
}

func TestPairKey_DistinctPairsDiffer(t *testing.T) {
	req := require.New(t)

	req.NotEqual(PairKey("alice", "bob"), PairKey("alice", "carol"))
	req.NotEqual(PairKey("alice", "bob"), PairKey("bob", "carol"))
}
