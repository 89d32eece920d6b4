// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layer

import (
	"fmt"

	"github.com/gogpu/compositor/impl"
)

// Tree is the owner of a logical layer tree. It indexes attached layers by
// id and forwards commit requests from property changes.
type Tree struct {
	root   Node
	layers map[int]*Layer

	needsCommit func()
}

// NewTree returns an empty tree. needsCommit, if not nil, is called every
// time an attached layer changes.
func NewTree(needsCommit func()) *Tree {
	return &Tree{
		layers:      make(map[int]*Layer),
		needsCommit: needsCommit,
	}
}

// RootLayer returns the root, or nil.
func (t *Tree) RootLayer() Node { return t.root }

// SetRootLayer replaces the root. The previous root is detached; the new
// one is taken from its previous parent.
func (t *Tree) SetRootLayer(root Node) {
	if sameNode(t.root, root) {
		return
	}
	if t.root != nil {
		t.root.Base().setTree(nil)
	}
	t.root = root
	if root != nil {
		r := root.Base()
		r.RemoveFromParent()
		r.setTree(t)
	}
	t.SetNeedsCommit()
}

// LayerByID returns the attached layer with the given id, or nil.
func (t *Tree) LayerByID(id int) *Layer { return t.layers[id] }

// Len returns the number of attached layers, masks and replicas included.
func (t *Tree) Len() int { return len(t.layers) }

// SetNeedsCommit requests a commit.
func (t *Tree) SetNeedsCommit() {
	if t.needsCommit != nil {
		t.needsCommit()
	}
}

// ApplyScrollDeltas adds scrolls reported by the render side to the scroll
// offsets of the matching layers. Deltas for layers that no longer exist are
// ignored.
func (t *Tree) ApplyScrollDeltas(deltas []impl.ScrollDelta) {
	for _, d := range deltas {
		l := t.layers[d.LayerID]
		if l == nil {
			continue
		}
		l.SetScrollOffset(l.ScrollOffset().Add(d.Delta))
	}
}

func (t *Tree) register(l *Layer) {
	if other, ok := t.layers[l.id]; ok && other != l {
		panic(fmt.Sprintf("layer: duplicate layer id %d", l.id))
	}
	t.layers[l.id] = l
}

func (t *Tree) unregister(l *Layer) {
	if t.layers[l.id] == l {
		delete(t.layers, l.id)
	}
}
