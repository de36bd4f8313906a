package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/domain"
)

func actorWith(perms []string, links map[string]string) *Actor {
	return NewActor("u1", perms, links)
}

func TestCompanyPolicyRequiresTokenAndLinkage(t *testing.T) {
	var pol Company
	const companyID = "c1"

	tests := []struct {
		name  string
		actor *Actor
		check func(*Actor) bool
		want  bool
	}{
		{
			name:  "edit token without linkage is denied",
			actor: actorWith([]string{domain.PermEditCompany}, nil),
			check: func(a *Actor) bool { return pol.CanUpdate(a, companyID) },
			want:  false,
		},
		{
			name:  "linkage without edit token is denied",
			actor: actorWith(nil, map[string]string{companyID: domain.MemberOwner}),
			check: func(a *Actor) bool { return pol.CanUpdate(a, companyID) },
			want:  false,
		},
		{
			name:  "edit token plus linkage is allowed",
			actor: actorWith([]string{domain.PermEditCompany}, map[string]string{companyID: domain.MemberEditor}),
			check: func(a *Actor) bool { return pol.CanUpdate(a, companyID) },
			want:  true,
		},
		{
			name:  "delete needs owner linkage, editor is denied",
			actor: actorWith([]string{domain.PermDeleteCompany}, map[string]string{companyID: domain.MemberEditor}),
			check: func(a *Actor) bool { return pol.CanDelete(a, companyID) },
			want:  false,
		},
		{
			name:  "delete with owner linkage is allowed",
			actor: actorWith([]string{domain.PermDeleteCompany}, map[string]string{companyID: domain.MemberOwner}),
			check: func(a *Actor) bool { return pol.CanDelete(a, companyID) },
			want:  true,
		},
		{
			name:  "oversight tokens allow delete without linkage",
			actor: actorWith([]string{domain.PermViewAllCompanies, domain.PermDeleteCompany}, nil),
			check: func(a *Actor) bool { return pol.CanDelete(a, companyID) },
			want:  true,
		},
		{
			name:  "view-all token allows viewing any company",
			actor: actorWith([]string{domain.PermViewAllCompanies}, nil),
			check: func(a *Actor) bool { return pol.CanView(a, companyID) },
			want:  true,
		},
		{
			name:  "invite editor requires owner linkage",
			actor: actorWith([]string{domain.PermInviteCompanyEditor}, map[string]string{companyID: domain.MemberEditor}),
			check: func(a *Actor) bool { return pol.CanInviteEditor(a, companyID) },
			want:  false,
		},
		{
			name:  "force delete always requires oversight",
			actor: actorWith([]string{domain.PermDeleteCompany}, map[string]string{companyID: domain.MemberOwner}),
			check: func(a *Actor) bool { return pol.CanForceDelete(a, companyID) },
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.actor))
		})
	}
}

// An actor holding every token still cannot touch the protected role:
// the guard fires before any permission is consulted.
func TestProtectedRoleGuardBeatsPermissions(t *testing.T) {
	var pol RBAC
	super := actorWith([]string{domain.PermManageRoles}, nil)

	err := pol.CanUpdateRole(super, domain.RoleAdmin)
	var pe *domain.ProtectedEntityError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "role", pe.Kind)
	assert.Equal(t, domain.RoleAdmin, pe.Name)

	err = pol.CanDeleteRole(super, domain.RoleAdmin)
	require.ErrorAs(t, err, &pe)

	// an ordinary role with no token at all: generic denial, not a named error
	nobody := actorWith(nil, nil)
	err = pol.CanDeleteRole(nobody, "content manager")
	assert.ErrorIs(t, err, domain.ErrDenied)
	assert.NotErrorAs(t, err, &pe)
}

func TestProtectedPermissionGuard(t *testing.T) {
	var pol RBAC
	super := actorWith([]string{domain.PermManageRoles}, nil)

	err := pol.CanDeletePermission(super, domain.PermManageRoles)
	var pe *domain.ProtectedEntityError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "permission", pe.Kind)

	assert.NoError(t, pol.CanDeletePermission(super, "export reports"))
}

func TestGuardRoleStrip(t *testing.T) {
	// admin keeping manage roles passes
	assert.NoError(t, GuardRoleStrip(domain.RoleAdmin, []string{domain.PermManageRoles, domain.PermViewAllCompanies}))
	// stripping manage roles from admin is blocked
	var pe *domain.ProtectedEntityError
	require.ErrorAs(t, GuardRoleStrip(domain.RoleAdmin, []string{domain.PermViewAllCompanies}), &pe)
	// other roles may carry anything
	assert.NoError(t, GuardRoleStrip("content manager", nil))
}

func TestListingPolicy(t *testing.T) {
	var pol Listing
	const companyID = "c1"

	editor := actorWith([]string{domain.PermManageJobListings}, map[string]string{companyID: domain.MemberEditor})
	assert.True(t, pol.CanCreate(editor, companyID))
	assert.True(t, pol.CanUpdate(editor, companyID))
	assert.False(t, pol.CanUpdate(editor, "other-company"))

	unlinked := actorWith([]string{domain.PermManageJobListings}, nil)
	assert.False(t, pol.CanDelete(unlinked, companyID))
}

func TestCatalogPolicy(t *testing.T) {
	var skills Skill
	var benefits Benefit

	admin := actorWith([]string{domain.PermManageListingConfig}, nil)
	assert.True(t, skills.CanCreate(admin))
	assert.True(t, benefits.CanDelete(admin))
	assert.False(t, skills.CanRestore(admin), "catalog entities are never restorable")

	owner := actorWith([]string{domain.PermManageJobListings}, map[string]string{"c1": domain.MemberOwner})
	assert.False(t, skills.CanCreate(owner), "listing tokens do not open the catalog")
}
