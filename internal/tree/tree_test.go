package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type node struct {
	id       string
	children []*node
}

func kids(n *node) []*node { return n.children }

func TestForEach_DepthFirstPreOrder(t *testing.T) {
	root := &node{id: "a", children: []*node{
		{id: "b", children: []*node{{id: "c"}, {id: "d"}}},
		{id: "e"},
	}}

	var visited []string
	ForEach(root, kids, func(n *node) { visited = append(visited, n.id) })

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, visited)
}

func TestForEach_CallbackRunsBeforeChildLookup(t *testing.T) {
	root := &node{id: "a"}

	var visited []string
	ForEach(root, kids, func(n *node) {
		visited = append(visited, n.id)
		if n.id == "a" {
			n.children = []*node{{id: "late"}}
		}
	})

	assert.Equal(t, []string{"a", "late"}, visited)
}

func TestMap(t *testing.T) {
	root := &node{id: "a", children: []*node{{id: "b"}}}

	ids := Map(root, kids, func(n *node) string { return n.id })

	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestForEach_CycleTerminates(t *testing.T) {
	a := &node{id: "a"}
	b := &node{id: "b", children: []*node{a}}
	a.children = []*node{b, a}

	ids := Map(a, kids, func(n *node) string { return n.id })

	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestForEach_SharedChildVisitedOnce(t *testing.T) {
	shared := &node{id: "s"}
	root := &node{id: "r", children: []*node{
		{id: "x", children: []*node{shared}},
		{id: "y", children: []*node{shared}},
	}}

	ids := Map(root, kids, func(n *node) string { return n.id })

	assert.Equal(t, []string{"r", "x", "s", "y"}, ids)
}
