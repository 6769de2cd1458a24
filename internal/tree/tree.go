// Package tree provides depth-first traversal over nodes whose children are looked up on demand.
package tree

// ForEach visits root and all its descendants depth-first, parents before children.
// Children are fetched after the parent's callback runs, so callbacks may rewrite
// the node before its subtree is visited. Each node is visited at most once, so a
// children func that loops back terminates.
func ForEach[T comparable](root T, children func(T) []T, cb func(T)) {
	seen := make(map[T]struct{})
	stack := []T{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}

		cb(node)

		kids := children(node)
		// Push in reverse so the first child is visited first.
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Map visits nodes like ForEach and collects cb's results in visit order.
func Map[T comparable, R any](root T, children func(T) []T, cb func(T) R) []R {
	var out []R
	ForEach(root, children, func(node T) {
		out = append(out, cb(node))
	})
	return out
}
