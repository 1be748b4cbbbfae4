package securefile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Scope records which permission path granted (or denied) access.
type Scope int

const (
	// ScopeNone means no scope applied (denied before any check matched).
	ScopeNone Scope = iota
	// ScopeSuperuser is the unconditional superuser bypass.
	ScopeSuperuser
	// ScopeGeneric is the host's generic view check, used when no active
	// policy is attached.
	ScopeGeneric
	// ScopeFull means the policy's ViewRoles were examined.
	ScopeFull
	// ScopeOwn means the requester owns the record and the policy's
	// ViewOwnRoles were examined.
	ScopeOwn
)

// Decision is the outcome of an access resolution. Denied is a normal
// outcome, not an error.
type Decision struct {
	Granted bool
	Scope   Scope
}

// AccessResolver decides whether a requester may view a content record.
// Configuration (superuser name) is fixed at construction.
type AccessResolver struct {
	superUser string
	store     ContentStore
	checker   ViewPermissionChecker
}

// NewAccessResolver creates a resolver. The checker handles records without
// an active permission policy; a nil checker denies those.
func NewAccessResolver(superUser string, store ContentStore, checker ViewPermissionChecker) *AccessResolver {
	return &AccessResolver{
		superUser: superUser,
		store:     store,
		checker:   checker,
	}
}

// Resolve loads the record and resolves access for it. Returns
// ErrContentNotFound when the record does not exist; a denied outcome is
// reported through the Decision, never as an error.
func (r *AccessResolver) Resolve(ctx context.Context, identity *Identity, contentID uuid.UUID) (Decision, error) {
	record, err := r.store.GetRecord(ctx, contentID)
	if err != nil {
		return Decision{}, err
	}
	return r.ResolveRecord(ctx, identity, record)
}

// ResolveRecord resolves access for an already-loaded record.
func (r *AccessResolver) ResolveRecord(ctx context.Context, identity *Identity, record *ContentRecord) (Decision, error) {
	if r.superUser != "" && identity != nil && identity.Username == r.superUser {
		return Decision{Granted: true, Scope: ScopeSuperuser}, nil
	}

	policy, err := r.effectivePolicy(ctx, record)
	if err != nil {
		return Decision{}, err
	}

	if policy == nil || !policy.Enabled {
		granted := r.checker != nil && r.checker.CanView(ctx, identity, record)
		return Decision{Granted: granted, Scope: ScopeGeneric}, nil
	}

	scope := ScopeFull
	authorized := policy.ViewRoles
	if hasOwnership(identity, record) {
		scope = ScopeOwn
		authorized = policy.ViewOwnRoles
	}

	return Decision{Granted: rolesIntersect(effectiveRoles(identity), authorized), Scope: scope}, nil
}

// effectivePolicy returns the record's policy, falling back to the declared
// container's policy when the record carries none. Inheritance is single-hop.
func (r *AccessResolver) effectivePolicy(ctx context.Context, record *ContentRecord) (*PermissionPolicy, error) {
	if record.Policy != nil && record.Policy.Enabled {
		return record.Policy, nil
	}
	if record.ContainerID == nil {
		return record.Policy, nil
	}
	container, err := r.store.GetRecord(ctx, *record.ContainerID)
	if err != nil {
		// A dangling container reference falls back to the record's own
		// (absent or disabled) policy.
		if errors.Is(err, ErrContentNotFound) {
			return record.Policy, nil
		}
		return nil, err
	}
	if container.Policy != nil {
		return container.Policy, nil
	}
	return record.Policy, nil
}

func hasOwnership(identity *Identity, record *ContentRecord) bool {
	if identity == nil || record.OwnerID == nil {
		return false
	}
	return identity.ID == *record.OwnerID
}

// effectiveRoles builds the role set examined by the access check: anonymous
// requesters get {Anonymous}; authenticated requesters get their declared
// roles plus Authenticated, unless the simulated-anonymous marker is already
// present; authenticated requesters without roles get {Authenticated}.
func effectiveRoles(identity *Identity) []string {
	if identity == nil {
		return []string{RoleAnonymous}
	}
	if len(identity.Roles) == 0 {
		return []string{RoleAuthenticated}
	}
	for _, role := range identity.Roles {
		if role == RoleAnonymous {
			return identity.Roles
		}
	}
	return append(append([]string(nil), identity.Roles...), RoleAuthenticated)
}

func rolesIntersect(requester, authorized []string) bool {
	for _, have := range requester {
		for _, want := range authorized {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
