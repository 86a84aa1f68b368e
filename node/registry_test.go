//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct{}

func (stubNode) Execute(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{"ok": true}, nil
}

func stubCtor() Node { return stubNode{} }

func TestRegistryRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Type: "stub", Name: "Stub"}, stubCtor))

	assert.True(t, r.Has("stub"))
	n, err := r.New("stub")
	require.NoError(t, err)
	data, err := n.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, data["ok"])
}

func TestRegistryDuplicateType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Type: "stub"}, stubCtor))
	err := r.Register(&Descriptor{Type: "stub"}, stubCtor)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateType)
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.New("ghost")
	assert.Error(t, err)
}

func TestRegistryTypesSorted(t *testing.T) {
	r := NewRegistry()
	for _, tag := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(&Descriptor{Type: tag}, stubCtor))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Types())
}

func TestRegistryCloneExcludes(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Type: "keep"}, stubCtor))
	require.NoError(t, r.Register(&Descriptor{Type: "drop"}, stubCtor))

	clone := r.Clone(func(d *Descriptor) bool { return d.Type == "drop" })
	assert.True(t, clone.Has("keep"))
	assert.False(t, clone.Has("drop"))
	// The original registry is untouched.
	assert.True(t, r.Has("drop"))
}

func TestParseDescriptors(t *testing.T) {
	raw := []byte(`
double:
  name: Double
  description: Doubles a number.
  params:
    v: {type: number, required: true, description: Input value.}
  output:
    out: Doubled value.
`)
	descs, err := ParseDescriptors(raw)
	require.NoError(t, err)
	d := descs["double"]
	require.NotNil(t, d)
	assert.Equal(t, "double", d.Type)
	assert.Equal(t, "Double", d.Name)
	assert.True(t, d.Params["v"].Required)

	text := d.PromptText()
	assert.Contains(t, text, "double")
	assert.Contains(t, text, "out: Doubled value.")
}
