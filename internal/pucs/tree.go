package pucs

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// TreeNode is one node of the PUC hierarchy. PUC is nil when no PUC row exists
// at this position and the node only groups its descendants.
type TreeNode struct {
	Name                   string      `json:"name"`
	Level                  Level       `json:"level"`
	PUC                    *PUC        `json:"puc,omitempty"`
	ProductCount           int64       `json:"product_count"`
	CumulativeProductCount int64       `json:"cumulative_product_count"`
	Children               []*TreeNode `json:"children"`
}

// BuildTree arranges pucs into their hierarchy, synthesizing ancestors that have
// no PUC row. counts maps a PUC ID to the number of products whose uberpuc it is.
// Roots and children are sorted by name.
func BuildTree(items []PUC, counts map[uuid.UUID]int64) []*TreeNode {
	root := &TreeNode{Children: []*TreeNode{}}
	index := map[string]*TreeNode{}

	for _, p := range items {
		node := root
		path := p.Path()
		for depth, name := range path {
			key := strings.Join(path[:depth+1], "\x00")
			child, ok := index[key]
			if !ok {
				child = &TreeNode{
					Name:     name,
					Level:    Level(depth + 1),
					Children: []*TreeNode{},
				}
				index[key] = child
				node.Children = append(node.Children, child)
			}
			node = child
		}

		p.ProductCount = counts[p.ID]
		node.PUC = &p
		node.ProductCount = p.ProductCount
	}

	accumulate(root)
	return root.Children
}

// accumulate sets cumulative counts bottom-up and sorts children by name.
func accumulate(n *TreeNode) int64 {
	total := n.ProductCount
	for _, c := range n.Children {
		total += accumulate(c)
	}
	n.CumulativeProductCount = total
	if n.PUC != nil {
		n.PUC.CumulativeProductCount = total
	}

	slices.SortFunc(n.Children, func(a, b *TreeNode) int {
		return strings.Compare(a.Name, b.Name)
	})
	return total
}
