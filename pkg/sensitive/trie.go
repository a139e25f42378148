package sensitive

// Root is the index of the trie root node.
const Root = 0

type node struct {
	terminal bool
	children map[rune]int32
}

// Trie is a prefix tree stored as an arena of nodes. Nodes are addressed by
// their index in the arena, the root always being at index Root.
//
// A Trie is only written while a Filter is being built and is read-only after
// that, so lookups need no locking.
type Trie struct {
	nodes []node
}

// NewTrie returns a trie holding only the root node.
func NewTrie() *Trie {
	return &Trie{nodes: []node{{}}}
}

// Insert adds keyword to the trie. Inserting an empty keyword does nothing, so
// the root never becomes terminal.
func (t *Trie) Insert(keyword string) {
	if keyword == "" {
		return
	}

	cur := Root
	for _, r := range keyword {
		next, ok := t.Child(cur, r)
		if !ok {
			next = len(t.nodes)
			t.nodes = append(t.nodes, node{})
			if t.nodes[cur].children == nil {
				t.nodes[cur].children = make(map[rune]int32)
			}
			t.nodes[cur].children[r] = int32(next)
		}
		cur = next
	}
	t.nodes[cur].terminal = true
}

// Child returns the index of the node reached from n over the edge r.
func (t *Trie) Child(n int, r rune) (int, bool) {
	next, ok := t.nodes[n].children[r]
	return int(next), ok
}

// IsTerminal reports whether some keyword ends at node n.
func (t *Trie) IsTerminal(n int) bool {
	return t.nodes[n].terminal
}

// Len returns the number of nodes, root included.
func (t *Trie) Len() int {
	return len(t.nodes)
}
