package tree

import (
	"sort"
	"strings"

	"canopy/internal/domain/models"
)

// rootPath returns the materialized path of a root node.
func rootPath(id string) string {
	return models.PathSep + id
}

// childPath appends a node id to its parent's path.
func childPath(parentPath, id string) string {
	return parentPath + models.PathSep + id
}

// withinSubtree reports whether path lies at or below subtreePath. Matching
// is exact or prefix-plus-separator so "/a/b" never matches "/a/bc".
func withinSubtree(path, subtreePath string) bool {
	return path == subtreePath || strings.HasPrefix(path, subtreePath+models.PathSep)
}

// sortByDepth orders nodes root-first in place, for breadcrumb output.
func sortByDepth(nodes []models.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Depth < nodes[j].Depth
	})
}
