package tree

import "canopy/internal/domain/models"

// buildForest nests a flat (depth, sort_order)-ordered node list into trees.
// Nodes whose parent is missing from the list (filtered out or in another
// subtree) become roots of their own fragment, which keeps the builder total
// over partial inputs like an inactive-filtered listing.
func buildForest(nodes []models.Node) []*models.TreeNode {
	byID := make(map[string]*models.TreeNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &models.TreeNode{Node: nodes[i], Children: []*models.TreeNode{}}
	}

	var roots []*models.TreeNode
	for i := range nodes {
		tn := byID[nodes[i].ID]
		if tn.ParentID != nil {
			if parent, ok := byID[*tn.ParentID]; ok {
				parent.Children = append(parent.Children, tn)
				continue
			}
		}
		roots = append(roots, tn)
	}

	return roots
}
