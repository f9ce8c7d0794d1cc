package bundle

// unionFind is a disjoint-set forest over wallet addresses. Each root also
// carries the set of blocks that contributed to its group.
type unionFind struct {
	parent map[string]string
	size   map[string]int
	blocks map[string]map[uint64]struct{}
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[string]string),
		size:   make(map[string]int),
		blocks: make(map[string]map[uint64]struct{}),
	}
}

func (u *unionFind) has(w string) bool {
	_, ok := u.parent[w]
	return ok
}

func (u *unionFind) add(w string) {
	if u.has(w) {
		return
	}
	u.parent[w] = w
	u.size[w] = 1
	u.blocks[w] = make(map[uint64]struct{})
}

func (u *unionFind) find(w string) string {
	root := w
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[w] != root {
		next := u.parent[w]
		u.parent[w] = root
		w = next
	}
	return root
}

// union joins the sets of a and b and returns the new root. The
// lexicographically smaller root wins so the forest shape never depends on
// call order.
func (u *unionFind) union(a, b string) string {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return ra
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	for blk := range u.blocks[rb] {
		u.blocks[ra][blk] = struct{}{}
	}
	delete(u.size, rb)
	delete(u.blocks, rb)
	return ra
}

func (u *unionFind) addBlock(w string, block uint64) {
	u.blocks[u.find(w)][block] = struct{}{}
}
