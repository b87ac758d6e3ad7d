package models

import "time"

// Board types supported by the platform. The type only affects how the
// frontend renders the board; the backend treats all types identically.
const (
	BoardTypeNotice  = "notice"
	BoardTypeFree    = "free"
	BoardTypeQnA     = "qna"
	BoardTypeFAQ     = "faq"
	BoardTypeGallery = "gallery"
	BoardTypeReview  = "review"
)

// Permission levels for board read/write/comment access. Evaluated by the
// auth layer before any board or category call reaches the services.
const (
	PermissionPublic   = "public"
	PermissionMember   = "member"
	PermissionAdmin    = "admin"
	PermissionDisabled = "disabled"
)

// Board is a tenant-owned container. Its category tree lives in the scope
// (TenantID, Board.ID).
type Board struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Code        string `json:"code"` // unique per tenant, used in URLs
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BoardType   string `json:"board_type"`

	ReadPermission    string `json:"read_permission"`
	WritePermission   string `json:"write_permission"`
	CommentPermission string `json:"comment_permission"`

	EnableCategories bool `json:"enable_categories"`
	IsActive         bool `json:"is_active"`
	IsDeleted        bool `json:"is_deleted"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// CategoryScope returns the tree scope holding this board's categories.
func (b *Board) CategoryScope() Scope {
	return Scope{TenantID: b.TenantID, ContainerID: b.ID}
}
