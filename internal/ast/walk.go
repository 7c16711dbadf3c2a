package ast

// WalkStatus controls traversal, mirroring goldmark's ast.WalkStatus.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
	WalkStop
)

// Walker is called on entering and leaving each node.
type Walker func(n *Node, entering bool) (WalkStatus, error)

// Walk traverses the tree depth first.
func Walk(n *Node, fn Walker) error {
	_, err := walk(n, fn)
	return err
}

func walk(n *Node, fn Walker) (WalkStatus, error) {
	status, err := fn(n, true)
	if err != nil || status == WalkStop {
		return WalkStop, err
	}
	if status != WalkSkipChildren {
		for _, c := range n.Children {
			if st, err := walk(c, fn); err != nil || st == WalkStop {
				return WalkStop, err
			}
		}
	}
	if st, err := fn(n, false); err != nil || st == WalkStop {
		return WalkStop, err
	}
	return WalkContinue, nil
}

// Visitor sees every node together with its parent and index in the parent.
// Returning false skips the node's children.
type Visitor func(parent *Node, index int, n *Node) bool

// Visit walks the tree with parent context. Visitors may replace
// parent.Children[index] but must not insert or remove siblings.
func Visit(root *Node, fn Visitor) {
	visit(nil, -1, root, fn)
}

func visit(parent *Node, index int, n *Node, fn Visitor) {
	if !fn(parent, index, n) {
		return
	}
	if parent != nil {
		n = parent.Children[index]
	}
	for i := 0; i < len(n.Children); i++ {
		visit(n, i, n.Children[i], fn)
	}
}

// FindAll returns every node matching pred in document order.
func FindAll(root *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	_ = Walk(root, func(n *Node, entering bool) (WalkStatus, error) {
		if entering && pred(n) {
			out = append(out, n)
		}
		return WalkContinue, nil
	})
	return out
}
