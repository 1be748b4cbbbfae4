package securefile_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudconstruct/securefile/pkg/securefile"
	memorystore "github.com/cloudconstruct/securefile/pkg/securefile/store/memory"
)

func denyAll() securefile.ViewPermissionChecker {
	return securefile.ViewPermissionCheckerFunc(
		func(ctx context.Context, identity *securefile.Identity, record *securefile.ContentRecord) bool {
			return false
		})
}

func allowAll() securefile.ViewPermissionChecker {
	return securefile.ViewPermissionCheckerFunc(
		func(ctx context.Context, identity *securefile.Identity, record *securefile.ContentRecord) bool {
			return true
		})
}

func TestResolve_PolicyRoles(t *testing.T) {
	store := memorystore.New()
	record := &securefile.ContentRecord{
		ID: uuid.New(),
		Policy: &securefile.PermissionPolicy{
			Enabled:   true,
			ViewRoles: []string{"Anonymous"},
		},
	}
	store.Put(record)
	resolver := securefile.NewAccessResolver("", store, denyAll())
	ctx := context.Background()

	t.Run("AnonymousGrantedByAnonymousRole", func(t *testing.T) {
		decision, err := resolver.Resolve(ctx, nil, record.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Equal(t, securefile.ScopeFull, decision.Scope)
	})

	t.Run("AnonymousDeniedByEditorOnlyPolicy", func(t *testing.T) {
		editorOnly := &securefile.ContentRecord{
			ID: uuid.New(),
			Policy: &securefile.PermissionPolicy{
				Enabled:   true,
				ViewRoles: []string{"Editor"},
			},
		}
		store.Put(editorOnly)

		decision, err := resolver.Resolve(ctx, nil, editorOnly.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
	})

	t.Run("RoleMatchIsCaseInsensitive", func(t *testing.T) {
		mixed := &securefile.ContentRecord{
			ID: uuid.New(),
			Policy: &securefile.PermissionPolicy{
				Enabled:   true,
				ViewRoles: []string{"EDITOR"},
			},
		}
		store.Put(mixed)

		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"editor"}}
		decision, err := resolver.Resolve(ctx, identity, mixed.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)
	})

	t.Run("AuthenticatedRoleSynthesized", func(t *testing.T) {
		authOnly := &securefile.ContentRecord{
			ID: uuid.New(),
			Policy: &securefile.PermissionPolicy{
				Enabled:   true,
				ViewRoles: []string{"Authenticated"},
			},
		}
		store.Put(authOnly)

		// Declared roles do not include Authenticated; it is appended.
		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"Editor"}}
		decision, err := resolver.Resolve(ctx, identity, authOnly.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)

		// No declared roles at all still counts as Authenticated.
		decision, err = resolver.Resolve(ctx, &securefile.Identity{ID: uuid.New()}, authOnly.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)
	})

	t.Run("SimulatedAnonymousKeepsRolesAsIs", func(t *testing.T) {
		authOnly := &securefile.ContentRecord{
			ID: uuid.New(),
			Policy: &securefile.PermissionPolicy{
				Enabled:   true,
				ViewRoles: []string{"Authenticated"},
			},
		}
		store.Put(authOnly)

		// An admin previewing as anonymous carries the Anonymous marker and
		// must not gain Authenticated.
		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"Anonymous"}}
		decision, err := resolver.Resolve(ctx, identity, authOnly.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
	})
}

func TestResolve_Superuser(t *testing.T) {
	store := memorystore.New()
	record := &securefile.ContentRecord{
		ID: uuid.New(),
		Policy: &securefile.PermissionPolicy{
			Enabled: true,
			// No roles at all: nobody passes the policy.
		},
	}
	store.Put(record)
	resolver := securefile.NewAccessResolver("admin", store, denyAll())
	ctx := context.Background()

	decision, err := resolver.Resolve(ctx, &securefile.Identity{ID: uuid.New(), Username: "admin"}, record.ID)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, securefile.ScopeSuperuser, decision.Scope)

	// Superuser match is case-sensitive.
	decision, err = resolver.Resolve(ctx, &securefile.Identity{ID: uuid.New(), Username: "Admin"}, record.ID)
	require.NoError(t, err)
	assert.False(t, decision.Granted)

	// A missing record is still not found, even for the superuser.
	_, err = resolver.Resolve(ctx, &securefile.Identity{ID: uuid.New(), Username: "admin"}, uuid.New())
	assert.ErrorIs(t, err, securefile.ErrContentNotFound)
}

func TestResolve_Ownership(t *testing.T) {
	store := memorystore.New()
	owner := uuid.New()
	record := &securefile.ContentRecord{
		ID:      uuid.New(),
		OwnerID: &owner,
		Policy: &securefile.PermissionPolicy{
			Enabled:      true,
			ViewRoles:    []string{"Editor"},
			ViewOwnRoles: []string{"Contributor"},
		},
	}
	store.Put(record)
	resolver := securefile.NewAccessResolver("", store, denyAll())
	ctx := context.Background()

	t.Run("OwnerUsesViewOwnRoles", func(t *testing.T) {
		identity := &securefile.Identity{ID: owner, Roles: []string{"Contributor"}}
		decision, err := resolver.Resolve(ctx, identity, record.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Equal(t, securefile.ScopeOwn, decision.Scope)
	})

	t.Run("OwnerDoesNotFallBackToViewRoles", func(t *testing.T) {
		identity := &securefile.Identity{ID: owner, Roles: []string{"Editor"}}
		decision, err := resolver.Resolve(ctx, identity, record.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, securefile.ScopeOwn, decision.Scope)
	})

	t.Run("NonOwnerUsesViewRoles", func(t *testing.T) {
		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"Editor"}}
		decision, err := resolver.Resolve(ctx, identity, record.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Equal(t, securefile.ScopeFull, decision.Scope)
	})

	t.Run("NonOwnerDeniedWhenOnlyOwnRolesGrant", func(t *testing.T) {
		ownOnly := &securefile.ContentRecord{
			ID:      uuid.New(),
			OwnerID: &owner,
			Policy: &securefile.PermissionPolicy{
				Enabled:      true,
				ViewOwnRoles: []string{"Owner"},
			},
		}
		store.Put(ownOnly)

		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"Owner"}}
		decision, err := resolver.Resolve(ctx, identity, ownOnly.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, securefile.ScopeFull, decision.Scope)
	})
}

func TestResolve_GenericFallback(t *testing.T) {
	store := memorystore.New()
	ctx := context.Background()

	noPolicy := &securefile.ContentRecord{ID: uuid.New()}
	disabled := &securefile.ContentRecord{
		ID:     uuid.New(),
		Policy: &securefile.PermissionPolicy{Enabled: false, ViewRoles: []string{"Anonymous"}},
	}
	store.Put(noPolicy)
	store.Put(disabled)

	t.Run("NoPolicyDelegatesToHostCheck", func(t *testing.T) {
		resolver := securefile.NewAccessResolver("", store, allowAll())
		decision, err := resolver.Resolve(ctx, nil, noPolicy.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Equal(t, securefile.ScopeGeneric, decision.Scope)
	})

	t.Run("DisabledPolicyIsIgnored", func(t *testing.T) {
		resolver := securefile.NewAccessResolver("", store, denyAll())
		decision, err := resolver.Resolve(ctx, nil, disabled.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, securefile.ScopeGeneric, decision.Scope)
	})
}

func TestResolve_ContainerInheritance(t *testing.T) {
	store := memorystore.New()
	ctx := context.Background()

	container := &securefile.ContentRecord{
		ID: uuid.New(),
		Policy: &securefile.PermissionPolicy{
			Enabled:   true,
			ViewRoles: []string{"Member"},
		},
	}
	store.Put(container)

	item := &securefile.ContentRecord{
		ID:          uuid.New(),
		ContainerID: &container.ID,
	}
	store.Put(item)

	resolver := securefile.NewAccessResolver("", store, denyAll())

	t.Run("ItemInheritsContainerPolicy", func(t *testing.T) {
		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"Member"}}
		decision, err := resolver.Resolve(ctx, identity, item.ID)
		require.NoError(t, err)
		assert.True(t, decision.Granted)

		decision, err = resolver.Resolve(ctx, nil, item.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
	})

	t.Run("InheritanceIsSingleHop", func(t *testing.T) {
		// The container's own container is never consulted.
		outer := &securefile.ContentRecord{
			ID: uuid.New(),
			Policy: &securefile.PermissionPolicy{
				Enabled:   true,
				ViewRoles: []string{"Member"},
			},
		}
		middle := &securefile.ContentRecord{ID: uuid.New(), ContainerID: &outer.ID}
		leaf := &securefile.ContentRecord{ID: uuid.New(), ContainerID: &middle.ID}
		store.Put(outer)
		store.Put(middle)
		store.Put(leaf)

		identity := &securefile.Identity{ID: uuid.New(), Roles: []string{"Member"}}
		decision, err := resolver.Resolve(ctx, identity, leaf.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, securefile.ScopeGeneric, decision.Scope)
	})

	t.Run("DanglingContainerFallsBackToGeneric", func(t *testing.T) {
		missing := uuid.New()
		orphan := &securefile.ContentRecord{ID: uuid.New(), ContainerID: &missing}
		store.Put(orphan)

		decision, err := resolver.Resolve(ctx, nil, orphan.ID)
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, securefile.ScopeGeneric, decision.Scope)
	})
}
