package models

import (
	"strings"
	"time"
)

// PathSep separates ancestor ids in a node's materialized path.
// A root node's path is PathSep + id; every other node's path is
// parent.Path + PathSep + id.
const PathSep = "/"

// Scope identifies the tree a node belongs to. Trees in different scopes
// never interact: code uniqueness, parent/child relations and subtree
// queries are all bounded by (TenantID, ContainerID). The container is a
// board id for category trees and a menu namespace for menu trees.
type Scope struct {
	TenantID    string `json:"tenant_id"`
	ContainerID string `json:"container_id"`
}

// Node is one element of a scoped tree: a category, a menu entry, or
// equivalent. Structural fields (ParentID, Depth, Path, SortOrder) are
// owned exclusively by the tree service; callers mutate only the
// display/metadata fields.
type Node struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	ContainerID string  `json:"container_id"`
	ParentID    *string `json:"parent_id"` // NULL = root
	Depth       int     `json:"depth"`     // 0 for roots
	Path        string  `json:"path"`

	Code        string `json:"code"` // immutable, unique per scope among live nodes
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`

	// Menu trees store their link here; category trees leave it empty.
	LinkURL    string `json:"link_url,omitempty"`
	LinkTarget string `json:"link_target,omitempty"` // "_self" or "_blank"

	SortOrder     int  `json:"sort_order"`
	IsActive      bool `json:"is_active"`
	IsDeleted     bool `json:"is_deleted"`
	AttachedCount int  `json:"attached_count"` // caller-maintained cache, informational only

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Scope returns the node's owning scope.
func (n *Node) Scope() Scope {
	return Scope{TenantID: n.TenantID, ContainerID: n.ContainerID}
}

// AncestorIDs parses the node's path into the ids of its ancestors,
// root-first, excluding the node itself.
func (n *Node) AncestorIDs() []string {
	segments := strings.Split(strings.Trim(n.Path, PathSep), PathSep)
	if len(segments) <= 1 {
		return nil
	}
	return segments[:len(segments)-1]
}

// TreeNode is a node with nested children, the shape the admin UI's tree
// components render.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}
