package document

import "inkwell/internal/docerrors"

// Validate checks the §3 invariants that must hold on any observed document:
// unique non-empty ids. It does not check where nodes sit in the tree (a
// TextNode directly under the document root passes), nor operation-specific
// path/offset bounds — those are the concern of internal/ops.Apply.
func (d Document) Validate() error {
	seen := make(map[string]bool)
	var walk func(n Node) error
	walk = func(n Node) error {
		id := n.ID()
		if id == "" {
			return &docerrors.InvalidPathError{Msg: "node has empty id"}
		}
		if seen[id] {
			return &docerrors.InvalidPathError{Msg: "duplicate node id " + id}
		}
		seen[id] = true
		if el, ok := n.(*ElementNode); ok {
			for _, c := range el.Children {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, c := range d.Children {
		if err := walk(c); err != nil {
			return err
		}
	}
	return nil
}

// ResolvePath walks path from the document root and returns the addressed
// node, or an InvalidPathError if any component is out of range.
func (d Document) ResolvePath(path []int) (Node, error) {
	if len(path) == 0 {
		return nil, &docerrors.InvalidPathError{Path: path, Msg: "empty path"}
	}
	idx := path[0]
	if idx < 0 || idx >= len(d.Children) {
		return nil, &docerrors.InvalidPathError{Path: path, Msg: "block index out of range"}
	}
	cur := d.Children[idx]
	for _, step := range path[1:] {
		el, ok := cur.(*ElementNode)
		if !ok {
			return nil, &docerrors.InvalidPathError{Path: path, Msg: "path descends into a non-element node"}
		}
		if step < 0 || step >= len(el.Children) {
			return nil, &docerrors.InvalidPathError{Path: path, Msg: "child index out of range"}
		}
		cur = el.Children[step]
	}
	return cur, nil
}
