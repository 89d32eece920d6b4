// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package impl

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// ForEach calls fn for every node of the tree rooted at root in pre-order:
// the node, its mask, its replica, then its children. A nil root is empty.
func ForEach(root Node, fn func(Node)) {
	if root == nil {
		return
	}
	fn(root)
	l := root.Impl()
	ForEach(l.mask, fn)
	ForEach(l.replica, fn)
	for _, c := range l.children {
		ForEach(c, fn)
	}
}

// FindByID returns the node with the given id, or nil.
func FindByID(root Node, id int) Node {
	var found Node
	ForEach(root, func(n Node) {
		if found == nil && n.Impl().id == id {
			found = n
		}
	})
	return found
}

// Count returns the number of nodes in the tree, masks and replicas included.
func Count(root Node) int {
	n := 0
	ForEach(root, func(Node) { n++ })
	return n
}

// ScrollDelta is a scroll the render side applied that the logical tree must
// absorb.
type ScrollDelta struct {
	LayerID int
	Delta   image.Point
}

// CollectScrollDeltas returns the whole-pixel scroll each node applied since
// the last collection and marks it as sent. Push during the next commit
// removes the sent part from the node's delta again.
func CollectScrollDeltas(root Node) []ScrollDelta {
	var out []ScrollDelta
	ForEach(root, func(n Node) {
		l := n.Impl()
		total := image.Pt(int(math.Floor(l.scrollDelta.X())), int(math.Floor(l.scrollDelta.Y())))
		d := total.Sub(l.sentScrollDelta)
		if d == (image.Point{}) {
			return
		}
		out = append(out, ScrollDelta{LayerID: l.id, Delta: d})
		l.sentScrollDelta = total
	})
	return out
}

// Dump renders the tree as indented text, one block per node.
func Dump(root Node) string {
	var b strings.Builder
	dump(&b, root, 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, indent int) {
	if n == nil {
		return
	}
	l := n.Impl()
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(b, "%s%s(%s)\n", pad, n.TypeName(), l.props.DebugName)

	pad += "    "
	fmt.Fprintf(b, "%slayer ID: %d\n", pad, l.id)
	fmt.Fprintf(b, "%sbounds: %d, %d\n", pad, l.props.Bounds.Width, l.props.Bounds.Height)
	if l.renderTargetID != 0 {
		fmt.Fprintf(b, "%srenderTarget: %d\n", pad, l.renderTargetID)
	}
	fmt.Fprintf(b, "%sposition: %g, %g\n", pad, l.props.Position.X(), l.props.Position.Y())
	fmt.Fprintf(b, "%sopacity: %g\n", pad, l.props.Opacity)
	if !l.scrollDelta.IsZero() {
		fmt.Fprintf(b, "%sscrollDelta: %g, %g\n", pad, l.scrollDelta.X(), l.scrollDelta.Y())
	}
	if s, ok := n.(*ScrollbarLayerImpl); ok {
		fmt.Fprintf(b, "%sscrollbar: %v of %d at %g/%d\n", pad, s.orientation, s.scrollLayerID, s.currentPos, s.maximum)
	}
	yesNo := "no"
	if l.props.DrawsContent {
		yesNo = "yes"
	}
	fmt.Fprintf(b, "%sdrawsContent: %s\n", pad, yesNo)

	if l.replica != nil {
		fmt.Fprintf(b, "%s  Replica:\n", strings.Repeat("  ", indent))
		dump(b, l.replica, indent+3)
	}
	if l.mask != nil {
		fmt.Fprintf(b, "%s  Mask:\n", strings.Repeat("  ", indent))
		dump(b, l.mask, indent+3)
	}
	for _, c := range l.children {
		dump(b, c, indent+1)
	}
}
