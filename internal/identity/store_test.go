package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	"jobboard/pkg/utils"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...), "failed to migrate test database")
	return NewStore(db, nil)
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.Bootstrap(context.Background(), zaptest.NewLogger(t), "", ""))
}

func createUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{ID: utils.NewID(), Email: email, Name: "Test User", PasswordHash: "x"}
	require.NoError(t, s.db.Create(u).Error)
	return u
}

func TestBootstrapIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	require.NoError(t, s.Bootstrap(ctx, log, "admin@example.com", "secret-password"))
	require.NoError(t, s.Bootstrap(ctx, log, "admin@example.com", "secret-password"))

	var roleCount, permCount, userCount int64
	require.NoError(t, s.db.Model(&domain.Role{}).Count(&roleCount).Error)
	require.NoError(t, s.db.Model(&domain.Permission{}).Count(&permCount).Error)
	require.NoError(t, s.db.Model(&domain.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 3, roleCount, "seed roles created exactly once")
	assert.EqualValues(t, 10, permCount, "seed permissions created exactly once")
	assert.EqualValues(t, 1, userCount, "bootstrap admin created exactly once")

	ok, err := s.HasPermission(ctx, mustAdminID(t, s), domain.PermManageRoles)
	require.NoError(t, err)
	assert.True(t, ok, "bootstrap admin holds manage roles")
}

func mustAdminID(t *testing.T, s *Store) string {
	t.Helper()
	var u domain.User
	require.NoError(t, s.db.First(&u, "email = ?", "admin@example.com").Error)
	return u.ID
}

func TestAssignRoleAndPermissions(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()
	u := createUser(t, s, "owner@example.com")

	require.NoError(t, s.AssignRole(ctx, u.ID, domain.RoleCompanyOwner))
	// idempotent: second assignment must not error or duplicate
	require.NoError(t, s.AssignRole(ctx, u.ID, domain.RoleCompanyOwner))

	ok, err := s.HasRole(ctx, u.ID, domain.RoleCompanyOwner)
	require.NoError(t, err)
	assert.True(t, ok)

	perms, err := s.VisiblePermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, perms, domain.PermCreateCompany)
	assert.Contains(t, perms, domain.PermManageJobListings)
	assert.NotContains(t, perms, domain.PermManageRoles)
}

func TestAssignRoleUnknownRole(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	u := createUser(t, s, "someone@example.com")

	err := s.AssignRole(context.Background(), u.ID, "no such role")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPermissionsUnionAcrossRoles(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()
	u := createUser(t, s, "multi@example.com")

	require.NoError(t, s.AssignRole(ctx, u.ID, domain.RoleCompanyOwner))
	require.NoError(t, s.AssignRole(ctx, u.ID, domain.RoleAdmin))

	perms, err := s.VisiblePermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, perms, domain.PermManageRoles)
	assert.Contains(t, perms, domain.PermInviteCompanyEditor)
	// distinct even though both roles grant it
	count := 0
	for _, p := range perms {
		if p == domain.PermCreateCompany {
			count++
		}
	}
	assert.Equal(t, 1, count, "shared permission appears once")
}

func TestCompanyOfOwnerPriority(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()
	u := createUser(t, s, "editor-owner@example.com")

	edited := &domain.Company{ID: utils.NewID(), Name: "Edited Co", RegistrationNumber: "R-1", RegistrationDocRef: "r/d/1.pdf", InviteToken: utils.NewToken()}
	owned := &domain.Company{ID: utils.NewID(), Name: "Owned Co", RegistrationNumber: "R-2", RegistrationDocRef: "r/d/2.pdf", InviteToken: utils.NewToken()}
	require.NoError(t, s.db.Create(edited).Error)
	require.NoError(t, s.db.Create(owned).Error)
	require.NoError(t, s.db.Create(&domain.CompanyUser{CompanyID: edited.ID, UserID: u.ID, Role: domain.MemberEditor}).Error)
	require.NoError(t, s.db.Create(&domain.CompanyUser{CompanyID: owned.ID, UserID: u.ID, Role: domain.MemberOwner}).Error)

	got, err := s.CompanyOf(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, owned.ID, got.ID, "owner linkage wins over editor linkage")

	ms, err := s.Memberships(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{edited.ID: domain.MemberEditor, owned.ID: domain.MemberOwner}, ms)
}

func TestCompanyOfSkipsSoftDeleted(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()
	u := createUser(t, s, "soft@example.com")

	co := &domain.Company{ID: utils.NewID(), Name: "Gone Co", RegistrationNumber: "R-3", RegistrationDocRef: "r/d/3.pdf", InviteToken: utils.NewToken()}
	require.NoError(t, s.db.Create(co).Error)
	require.NoError(t, s.db.Create(&domain.CompanyUser{CompanyID: co.ID, UserID: u.ID, Role: domain.MemberOwner}).Error)
	require.NoError(t, s.db.Delete(co).Error)

	got, err := s.CompanyOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "soft-deleted company is not an active linkage")
}

func TestRoleCRUDAndSync(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()

	role, err := s.CreateRole(ctx, "content manager", []string{domain.PermManageListingConfig})
	require.NoError(t, err)

	_, err = s.CreateRole(ctx, "content manager", nil)
	assert.ErrorIs(t, err, domain.ErrConflict, "role names are unique")

	u := createUser(t, s, "cm@example.com")
	require.NoError(t, s.AssignRole(ctx, u.ID, "content manager"))

	ok, err := s.HasPermission(ctx, u.ID, domain.PermManageListingConfig)
	require.NoError(t, err)
	assert.True(t, ok)

	// replace the permission set wholesale
	require.NoError(t, s.SyncRolePermissions(ctx, role.ID, []string{domain.PermViewCompany}))
	ok, err = s.HasPermission(ctx, u.ID, domain.PermManageListingConfig)
	require.NoError(t, err)
	assert.False(t, ok, "revoked token disappears from the projection")

	require.NoError(t, s.DeleteRole(ctx, role.ID))
	perms, err := s.VisiblePermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, perms, "deleting the role detaches its holders")
}

func TestPermissionCRUD(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()

	perm, err := s.CreatePermission(ctx, "export reports")
	require.NoError(t, err)

	_, err = s.CreatePermission(ctx, "export reports")
	assert.ErrorIs(t, err, domain.ErrConflict)

	names, err := s.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "export reports")

	require.NoError(t, s.DeletePermission(ctx, perm.ID))
	assert.ErrorIs(t, s.DeletePermission(ctx, perm.ID), domain.ErrNotFound)
}

func TestLoadActorSnapshot(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	ctx := context.Background()
	u := createUser(t, s, "actor@example.com")
	require.NoError(t, s.AssignRole(ctx, u.ID, domain.RoleCompanyOwner))

	co := &domain.Company{ID: utils.NewID(), Name: "Actor Co", RegistrationNumber: "R-9", RegistrationDocRef: "r/d/9.pdf", InviteToken: utils.NewToken()}
	require.NoError(t, s.db.Create(co).Error)
	require.NoError(t, s.db.Create(&domain.CompanyUser{CompanyID: co.ID, UserID: u.ID, Role: domain.MemberOwner}).Error)

	actor, err := s.LoadActor(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, actor.Can(domain.PermCreateCompany))
	assert.True(t, actor.LinkedAs(co.ID, domain.MemberOwner))
	assert.False(t, actor.LinkedTo(utils.NewID()))
}
