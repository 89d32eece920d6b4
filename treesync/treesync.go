// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package treesync mirrors a logical layer tree into render nodes.
//
// Synchronize runs once per commit. Render nodes are matched to logical
// layers by id: a node whose id is still present is reused with its render
// state intact, a new id gets a node from the layer's CreateImpl, and a node
// whose id disappeared is dropped with the old tree.
package treesync

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/compositor/impl"
	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/layer"
)

// Stats counts what a synchronization did with render nodes.
type Stats struct {
	Reused  int
	Created int
	Dropped int
}

// Synchronize returns the render tree for root, reusing nodes of the tree
// rooted at oldRoot. The old tree must not be used afterwards. A nil root
// yields a nil tree.
func Synchronize(root layer.Node, oldRoot impl.Node) impl.Node {
	n, _ := SynchronizeWithStats(root, oldRoot)
	return n
}

// SynchronizeWithStats is Synchronize that also reports node counts.
func SynchronizeWithStats(root layer.Node, oldRoot impl.Node) (impl.Node, Stats) {
	old := make(map[int]impl.Node)
	collectExisting(old, oldRoot)

	s := &syncer{
		old:   old,
		built: make(map[int]impl.Node),
	}
	var newRoot impl.Node
	if root != nil {
		newRoot = s.synchronize(root)
		s.wireScrollbars(root)
	}
	s.stats.Dropped = len(old)

	if logging.Enabled(slog.LevelDebug) {
		logging.Logger().Debug("treesync: synchronized",
			"reused", s.stats.Reused,
			"created", s.stats.Created,
			"dropped", s.stats.Dropped)
	}
	return newRoot, s.stats
}

// collectExisting takes every node of the old tree apart and indexes it by
// id.
func collectExisting(m map[int]impl.Node, n impl.Node) {
	if n == nil {
		return
	}
	l := n.Impl()
	for _, c := range l.Children() {
		collectExisting(m, c)
	}
	collectExisting(m, l.MaskLayer())
	collectExisting(m, l.ReplicaLayer())

	l.ClearChildList()
	l.SetMaskLayer(nil)
	l.SetReplicaLayer(nil)
	m[l.ID()] = n
}

type syncer struct {
	old   map[int]impl.Node
	built map[int]impl.Node
	stats Stats
}

func (s *syncer) reuseOrCreate(ln layer.Node) impl.Node {
	id := ln.Base().ID()
	if n, ok := s.old[id]; ok {
		delete(s.old, id)
		s.stats.Reused++
		return n
	}
	s.stats.Created++
	return ln.CreateImpl()
}

func (s *syncer) synchronize(ln layer.Node) impl.Node {
	base := ln.Base()
	n := s.reuseOrCreate(ln)
	l := n.Impl()

	for _, c := range base.Children() {
		l.AddChild(s.synchronize(c))
	}
	if m := base.MaskLayer(); m != nil {
		l.SetMaskLayer(s.synchronize(m))
	}
	if r := base.ReplicaLayer(); r != nil {
		l.SetReplicaLayer(s.synchronize(r))
	}

	ln.PushPropertiesTo(n)

	// Rewired by wireScrollbars once every node exists.
	l.ClearScrollbarLayers()

	s.built[base.ID()] = n
	return n
}

// wireScrollbars attaches every scrollbar render node to the render node of
// the layer it scrolls. Only child lists are searched for scrollbars.
func (s *syncer) wireScrollbars(ln layer.Node) {
	if sb, ok := ln.(layer.Scrollbar); ok {
		id := sb.Base().ID()
		sbImpl, ok := s.built[id].(*impl.ScrollbarLayerImpl)
		if !ok {
			panic(fmt.Sprintf("treesync: scrollbar layer %d has no scrollbar render node", id))
		}
		scrolled := s.built[sb.ScrollLayerID()]
		if scrolled == nil {
			panic(fmt.Sprintf("treesync: scrollbar layer %d scrolls layer %d, which is not in the tree", id, sb.ScrollLayerID()))
		}
		switch sb.Orientation() {
		case impl.Horizontal:
			scrolled.Impl().SetHorizontalScrollbarLayer(sbImpl)
		default:
			scrolled.Impl().SetVerticalScrollbarLayer(sbImpl)
		}
	}
	for _, c := range ln.Base().Children() {
		s.wireScrollbars(c)
	}
}
