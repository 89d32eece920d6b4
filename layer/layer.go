// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package layer holds the logical layer tree mutated by the main goroutine.
//
// Each Layer has a process-wide unique id, an ordered list of children and
// optional mask and replica slots. During commit, package treesync mirrors
// the tree into render nodes from package impl, using CreateImpl to make new
// render nodes and PushPropertiesTo to copy properties over.
//
// Thread Safety: layers are NOT thread-safe. A tree belongs to the goroutine
// that runs the scheduler.
package layer

import (
	"fmt"
	"image"
	"slices"
	"sync/atomic"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/impl"
)

// Node is a logical layer of any kind. Every kind embeds Layer; Base returns
// that shared part.
type Node interface {
	Base() *Layer

	// CreateImpl returns a new render node of the matching kind.
	CreateImpl() impl.Node

	// PushPropertiesTo copies the render-relevant properties to n.
	PushPropertiesTo(n impl.Node)
}

// Scrollbar is implemented by logical layers that draw a scrollbar for
// another layer.
type Scrollbar interface {
	Node
	ScrollLayerID() int
	Orientation() impl.Orientation
}

var lastLayerID atomic.Int64

func nextLayerID() int {
	return int(lastLayerID.Add(1))
}

// Layer is the plain logical layer, and the part every other kind embeds.
type Layer struct {
	id       int
	parent   *Layer
	children []Node
	mask     Node
	replica  Node
	tree     *Tree

	renderTargetID int

	props      impl.Properties
	updateRect image.Rectangle
}

// New returns a detached layer with a fresh id.
func New() *Layer {
	l := &Layer{}
	l.init()
	return l
}

func (l *Layer) init() {
	l.id = nextLayerID()
	l.props = impl.DefaultProperties()
}

// Base returns l.
func (l *Layer) Base() *Layer { return l }

// CreateImpl returns a plain render node with l's id.
func (l *Layer) CreateImpl() impl.Node {
	return impl.New(l.id)
}

// PushPropertiesTo copies l's properties and pending invalidation to n, and
// drops the scroll delta the render side already reported from n.
func (l *Layer) PushPropertiesTo(n impl.Node) {
	li := n.Impl()
	li.SetProperties(l.props)
	li.AddUpdateRect(l.updateRect)
	l.updateRect = image.Rectangle{}

	sent := li.SentScrollDelta()
	li.SetScrollDelta(li.ScrollDelta().Sub(geom.FromPoint(sent)))
	li.SetSentScrollDelta(image.Point{})
}

// ID returns the layer id. It never changes.
func (l *Layer) ID() int { return l.id }

// Parent returns the layer holding l in its child list or in a mask or
// replica slot, or nil.
func (l *Layer) Parent() *Layer { return l.parent }

// Children returns the ordered children. The slice must not be modified.
func (l *Layer) Children() []Node { return l.children }

// MaskLayer returns the mask, or nil.
func (l *Layer) MaskLayer() Node { return l.mask }

// ReplicaLayer returns the replica, or nil.
func (l *Layer) ReplicaLayer() Node { return l.replica }

// Tree returns the tree l is attached to, or nil.
func (l *Layer) Tree() *Tree { return l.tree }

// RootLayer returns the topmost ancestor of l, which is l itself when it has
// no parent.
func (l *Layer) RootLayer() *Layer {
	r := l
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// HasAncestor reports whether a is a strict ancestor of l.
func (l *Layer) HasAncestor(a *Layer) bool {
	for p := l.parent; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

// AddChild appends child, detaching it from its previous parent first.
func (l *Layer) AddChild(child Node) {
	l.InsertChild(child, len(l.children))
}

// InsertChild inserts child at index, clamped to the valid range, detaching
// it from its previous parent first.
func (l *Layer) InsertChild(child Node, index int) {
	c := child.Base()
	l.checkNotAncestor(c)
	c.RemoveFromParent()
	index = max(0, min(index, len(l.children)))
	l.children = slices.Insert(l.children, index, child)
	c.parent = l
	c.setTree(l.tree)
	l.setNeedsCommit()
}

// checkNotAncestor panics if attaching n below l would form a cycle.
func (l *Layer) checkNotAncestor(n *Layer) {
	if n == l || l.HasAncestor(n) {
		panic(fmt.Sprintf("layer: inserting layer %d under itself", n.id))
	}
}

// ReplaceChild puts replacement where reference sits in l's child list.
// A nil replacement just removes reference. It reports whether reference
// was a child of l.
func (l *Layer) ReplaceChild(reference, replacement Node) bool {
	ref := reference.Base()
	if ref.parent != l {
		return false
	}
	i := l.indexOf(ref)
	if i < 0 {
		return false
	}
	if replacement != nil && replacement.Base() == ref {
		return true
	}
	ref.RemoveFromParent()
	if replacement != nil {
		l.InsertChild(replacement, i)
	}
	return true
}

// RemoveFromParent detaches l from its parent's child list or slot.
func (l *Layer) RemoveFromParent() {
	if l.parent != nil {
		l.parent.removeChild(l)
	}
}

// RemoveAllChildren detaches every child of l.
func (l *Layer) RemoveAllChildren() {
	for len(l.children) > 0 {
		l.children[0].Base().RemoveFromParent()
	}
}

// SetChildren replaces the child list of l.
func (l *Layer) SetChildren(children []Node) {
	if len(children) == len(l.children) {
		same := true
		for i := range children {
			if children[i].Base() != l.children[i].Base() {
				same = false
				break
			}
		}
		if same {
			return
		}
	}
	l.RemoveAllChildren()
	for _, c := range children {
		l.AddChild(c)
	}
}

// SetMaskLayer sets or, with nil, clears the mask slot.
func (l *Layer) SetMaskLayer(mask Node) {
	if sameNode(l.mask, mask) {
		return
	}
	if l.mask != nil {
		l.mask.Base().detachFrom(l)
	}
	if mask != nil {
		m := mask.Base()
		l.checkNotAncestor(m)
		m.RemoveFromParent()
		m.parent = l
		m.setTree(l.tree)
	}
	l.mask = mask
	l.setNeedsCommit()
}

// SetReplicaLayer sets or, with nil, clears the replica slot.
func (l *Layer) SetReplicaLayer(replica Node) {
	if sameNode(l.replica, replica) {
		return
	}
	if l.replica != nil {
		l.replica.Base().detachFrom(l)
	}
	if replica != nil {
		r := replica.Base()
		l.checkNotAncestor(r)
		r.RemoveFromParent()
		r.parent = l
		r.setTree(l.tree)
	}
	l.replica = replica
	l.setNeedsCommit()
}

// RenderTarget returns the layer whose surface l draws into, or nil.
// The target is looked up by id in the attached tree.
func (l *Layer) RenderTarget() *Layer {
	if l.renderTargetID == 0 || l.tree == nil {
		return nil
	}
	return l.tree.LayerByID(l.renderTargetID)
}

// SetRenderTarget records the layer whose surface l draws into.
func (l *Layer) SetRenderTarget(target *Layer) {
	if target == nil {
		l.renderTargetID = 0
		return
	}
	l.renderTargetID = target.id
}

func (l *Layer) indexOf(c *Layer) int {
	return slices.IndexFunc(l.children, func(n Node) bool { return n.Base() == c })
}

func (l *Layer) removeChild(c *Layer) {
	switch {
	case l.mask != nil && l.mask.Base() == c:
		l.mask = nil
	case l.replica != nil && l.replica.Base() == c:
		l.replica = nil
	default:
		i := l.indexOf(c)
		if i < 0 {
			panic(fmt.Sprintf("layer: layer %d is not a child of layer %d", c.id, l.id))
		}
		l.children = slices.Delete(l.children, i, i+1)
	}
	c.parent = nil
	c.setTree(nil)
	l.setNeedsCommit()
}

// detachFrom clears l's parent link if it points at p, for slot owners
// dropping l.
func (l *Layer) detachFrom(p *Layer) {
	if l.parent != p {
		return
	}
	l.parent = nil
	l.setTree(nil)
}

func (l *Layer) setTree(t *Tree) {
	if l.tree == t {
		return
	}
	if l.tree != nil {
		l.tree.unregister(l)
	}
	l.tree = t
	if t != nil {
		t.register(l)
	}
	if l.mask != nil {
		l.mask.Base().setTree(t)
	}
	if l.replica != nil {
		l.replica.Base().setTree(t)
	}
	for _, c := range l.children {
		c.Base().setTree(t)
	}
}

func (l *Layer) setNeedsCommit() {
	if l.tree != nil {
		l.tree.SetNeedsCommit()
	}
}

func sameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Base() == b.Base()
}
