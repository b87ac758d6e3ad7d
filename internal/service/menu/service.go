package menu

import (
	"fmt"
	"regexp"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
)

// containerPrefix keeps menu scopes disjoint from board scopes inside the
// shared nodes table: a board id can never start with "menu:".
const containerPrefix = "menu:"

var namespacePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

const maxNamespaceLength = 50

// Namespaces seeded for every tenant. Tenants may create more; these are
// just the ones the default frontend renders.
const (
	NamespaceHeader = "header"
	NamespaceFooter = "footer"
	NamespaceSide   = "side"
)

// Scope maps a tenant and menu namespace onto a tree scope. Menu trees ride
// the same engine as category trees; only the container id differs.
func Scope(tenantID, namespace string) (models.Scope, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return models.Scope{}, err
	}
	return models.Scope{
		TenantID:    tenantID,
		ContainerID: containerPrefix + namespace,
	}, nil
}

// ValidateNamespace checks the namespace format without touching storage.
// Namespaces are created implicitly by the first menu item added to them.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace is required", domain.ErrValidation)
	}
	if len(namespace) > maxNamespaceLength {
		return fmt.Errorf("%w: namespace exceeds %d characters", domain.ErrValidation, maxNamespaceLength)
	}
	if !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("%w: namespace must be lowercase alphanumeric, underscore or hyphen", domain.ErrValidation)
	}
	return nil
}
