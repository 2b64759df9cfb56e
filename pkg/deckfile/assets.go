package deckfile

// Assets returns the files the deck references (fonts, then images in tree
// order) as paths on disk. References that do not resolve are skipped; Build
// reports them.
func (f *File) Assets() []string {
	var out []string
	add := func(path string) {
		if path == "" {
			return
		}
		if p, err := f.resolve(path); err == nil {
			out = append(out, p)
		}
	}
	for _, family := range sortedKeys(f.Fonts) {
		spec := f.Fonts[family]
		add(spec.Regular)
		add(spec.Bold)
		add(spec.Italic)
		add(spec.BoldItalic)
	}
	var walk func(n *NodeSpec)
	walk = func(n *NodeSpec) {
		add(n.Image)
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	for i := range f.Slides {
		walk(&f.Slides[i].Root)
	}
	return out
}
