package fstree

import "sort"

// childSet keeps a node's children in total order by (oldest time ascending,
// path ascending). The ordering key is mutable, so the set is only ever
// updated via remove-then-reinsert; callers must never change a child's
// oldest time while it is a member.
type childSet struct {
	nodes []*Node
}

// less orders by oldest time, breaking ties by path so the order is total.
func (s *childSet) less(a, b *Node) bool {
	if a.oldest.Equal(b.oldest) {
		return a.path < b.path
	}
	return a.oldest.Before(b.oldest)
}

// insert adds n at its sorted position.
func (s *childSet) insert(n *Node) {
	i := sort.Search(len(s.nodes), func(i int) bool {
		return !s.less(s.nodes[i], n)
	})
	s.nodes = append(s.nodes, nil)
	copy(s.nodes[i+1:], s.nodes[i:])
	s.nodes[i] = n
}

// remove deletes n from the set. Equal keys are possible, so the search is
// narrowed by key first and then matched by identity.
func (s *childSet) remove(n *Node) bool {
	i := sort.Search(len(s.nodes), func(i int) bool {
		return !s.less(s.nodes[i], n)
	})
	for ; i < len(s.nodes); i++ {
		if s.nodes[i] == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return true
		}
		if s.less(n, s.nodes[i]) {
			break
		}
	}
	// Key drifted without a re-rank; fall back to a linear scan so the set
	// never silently leaks a member.
	for i, c := range s.nodes {
		if c == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// min returns the child with the smallest (oldest time, path) key, or nil.
func (s *childSet) min() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[0]
}

// max returns the child with the largest (oldest time, path) key, or nil.
func (s *childSet) max() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[len(s.nodes)-1]
}

func (s *childSet) len() int { return len(s.nodes) }

// all returns a copy of the members in order. Callers iterate the copy so
// re-ranking during the walk cannot corrupt the iteration.
func (s *childSet) all() []*Node {
	out := make([]*Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

func (s *childSet) clear() { s.nodes = nil }
