package company

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/core/storage"
	"jobboard/internal/domain"
	"jobboard/internal/identity"
	"jobboard/internal/policy"
	"jobboard/pkg/utils"
)

type fixture struct {
	db    *gorm.DB
	store *identity.Store
	files *storage.Disk
	svc   *Service
	root  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))

	root := t.TempDir()
	files, err := storage.NewDisk(filepath.Join(root, "public"), filepath.Join(root, "restricted"))
	require.NoError(t, err)

	store := identity.NewStore(db, nil)
	require.NoError(t, store.Bootstrap(context.Background(), zaptest.NewLogger(t), "", ""))

	svc := NewService(db, store, files, zaptest.NewLogger(t),
		[]string{"name", "registration_number", "registration_document", "industry"})
	return &fixture{db: db, store: store, files: files, svc: svc, root: root}
}

func (f *fixture) newOwnerActor(t *testing.T, email string) *policy.Actor {
	t.Helper()
	u := &domain.User{ID: utils.NewID(), Email: email, PasswordHash: "x"}
	require.NoError(t, f.db.Create(u).Error)
	require.NoError(t, f.store.AssignRole(context.Background(), u.ID, domain.RoleCompanyOwner))
	actor, err := f.store.LoadActor(context.Background(), u.ID)
	require.NoError(t, err)
	return actor
}

func (f *fixture) reloadActor(t *testing.T, userID string) *policy.Actor {
	t.Helper()
	actor, err := f.store.LoadActor(context.Background(), userID)
	require.NoError(t, err)
	return actor
}

func pdf() *FileUpload {
	return &FileUpload{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF-fake")}
}

func validInput() OnboardInput {
	return OnboardInput{
		Name:               "Acme GmbH",
		RegistrationNumber: "HRB-12345",
		Industry:           "Software",
		RegistrationDoc:    pdf(),
	}
}

func TestOnboardCreatesCompanyOwnerAndEditors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.newOwnerActor(t, "founder@acme.test")

	in := validInput()
	in.Logo = &FileUpload{Name: "logo.png", ContentType: "image/png", Data: []byte("png")}
	in.TeamEmails = []string{"editor@acme.test", "editor@acme.test", "second@acme.test"}

	co, err := f.svc.Onboard(ctx, actor, in)
	require.NoError(t, err)
	assert.NotEmpty(t, co.InviteToken)
	assert.NotEmpty(t, co.RegistrationDocRef)
	assert.NotEmpty(t, co.LogoRef)

	// stored files really exist
	rc, err := f.files.Resolve(ctx, co.RegistrationDocRef)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-fake", string(b))

	// owner membership
	ok, err := f.store.IsLinkedTo(ctx, actor.UserID, co.ID, domain.MemberOwner)
	require.NoError(t, err)
	assert.True(t, ok)

	// invited editors: deduped, created as users, given the editor role
	var members int64
	require.NoError(t, f.db.Model(&domain.CompanyUser{}).Where("company_id = ?", co.ID).Count(&members).Error)
	assert.EqualValues(t, 3, members, "owner + two distinct editors")

	var editor domain.User
	require.NoError(t, f.db.First(&editor, "email = ?", "editor@acme.test").Error)
	hasRole, err := f.store.HasRole(ctx, editor.ID, domain.RoleCompanyEditor)
	require.NoError(t, err)
	assert.True(t, hasRole)
}

func TestOnboardValidatesRequiredFields(t *testing.T) {
	f := setup(t)
	actor := f.newOwnerActor(t, "founder@empty.test")

	_, err := f.svc.Onboard(context.Background(), actor, OnboardInput{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "company_name")
	assert.Contains(t, ve.Fields, "registration_number")
	assert.Contains(t, ve.Fields, "registration_document")
	assert.Contains(t, ve.Fields, "industry")
	assert.NotContains(t, ve.Fields, "company_size", "size is not in the configured required set")
}

func TestOnboardRejectsBadTeamEmail(t *testing.T) {
	f := setup(t)
	actor := f.newOwnerActor(t, "founder@mail.test")

	in := validInput()
	in.TeamEmails = []string{"not-an-email"}
	_, err := f.svc.Onboard(context.Background(), actor, in)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "team_members")
}

func TestOnboardWithoutTokenIsDenied(t *testing.T) {
	f := setup(t)
	u := &domain.User{ID: utils.NewID(), Email: "norole@x.test", PasswordHash: "x"}
	require.NoError(t, f.db.Create(u).Error)
	actor, err := f.store.LoadActor(context.Background(), u.ID)
	require.NoError(t, err)

	_, err = f.svc.Onboard(context.Background(), actor, validInput())
	assert.ErrorIs(t, err, domain.ErrDenied)
}

func TestOnboardTwiceConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.newOwnerActor(t, "founder@twice.test")

	_, err := f.svc.Onboard(ctx, actor, validInput())
	require.NoError(t, err)

	in := validInput()
	in.RegistrationNumber = "HRB-67890"
	_, err = f.svc.Onboard(ctx, actor, in)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOnboardDuplicateRegistrationNumberRollsBackAndCleansFiles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.newOwnerActor(t, "a@dup.test")
	_, err := f.svc.Onboard(ctx, first, validInput())
	require.NoError(t, err)

	second := f.newOwnerActor(t, "b@dup.test")
	_, err = f.svc.Onboard(ctx, second, validInput()) // same registration number
	assert.ErrorIs(t, err, domain.ErrConflict)

	// the loser's uploads must not linger in the restricted bucket
	entries, err := os.ReadDir(filepath.Join(f.root, "restricted", "registration-documents"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the winner's document remains")

	var companies int64
	require.NoError(t, f.db.Model(&domain.Company{}).Count(&companies).Error)
	assert.EqualValues(t, 1, companies)
}

func TestUpdateReplacesAssets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.newOwnerActor(t, "founder@upd.test")

	in := validInput()
	in.Banner = &FileUpload{Name: "banner.png", ContentType: "image/png", Data: []byte("v1")}
	co, err := f.svc.Onboard(ctx, actor, in)
	require.NoError(t, err)
	oldBanner := co.BannerRef

	actor = f.reloadActor(t, actor.UserID)
	upd := UpdateInput{
		Name:               "Acme SE",
		RegistrationNumber: co.RegistrationNumber,
		Banner:             &FileUpload{Name: "banner2.png", ContentType: "image/png", Data: []byte("v2")},
	}
	got, err := f.svc.Update(ctx, actor, upd)
	require.NoError(t, err)
	assert.Equal(t, "Acme SE", got.Name)
	assert.NotEqual(t, oldBanner, got.BannerRef)

	_, err = f.files.Resolve(ctx, oldBanner)
	assert.ErrorIs(t, err, storage.ErrNotFound, "replaced banner is deleted from disk")
}

func TestUpdateRemoveBanner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.newOwnerActor(t, "founder@rm.test")

	in := validInput()
	in.Banner = &FileUpload{Name: "banner.png", ContentType: "image/png", Data: []byte("v1")}
	co, err := f.svc.Onboard(ctx, actor, in)
	require.NoError(t, err)

	actor = f.reloadActor(t, actor.UserID)
	got, err := f.svc.Update(ctx, actor, UpdateInput{
		Name:               co.Name,
		RegistrationNumber: co.RegistrationNumber,
		RemoveBanner:       true,
	})
	require.NoError(t, err)
	assert.Empty(t, got.BannerRef)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.newOwnerActor(t, "founder@life.test")

	co, err := f.svc.Onboard(ctx, actor, validInput())
	require.NoError(t, err)
	actor = f.reloadActor(t, actor.UserID)

	require.NoError(t, f.svc.SoftDelete(ctx, actor, co.ID))

	// hidden from the default scope, membership remains
	got, err := f.store.CompanyOf(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Nil(t, got)
	has, err := f.svc.HasCompany(ctx, actor.UserID)
	require.NoError(t, err)
	assert.True(t, has, "membership survives a soft delete")

	require.NoError(t, f.svc.Restore(ctx, actor, co.ID))
	got, err = f.store.CompanyOf(ctx, actor.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, co.ID, got.ID)

	// restoring an already-active company is NotFound
	assert.ErrorIs(t, f.svc.Restore(ctx, actor, co.ID), domain.ErrNotFound)
}

func TestForceDeleteClearsEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := f.newOwnerActor(t, "founder@force.test")

	co, err := f.svc.Onboard(ctx, owner, validInput())
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&domain.JobListing{
		ID: utils.NewID(), CompanyID: co.ID, Title: "Ghost job", Description: "x",
		EmploymentType: domain.EmploymentFullTime, Location: "Berlin",
	}).Error)

	admin := policy.NewActor("admin-1", []string{domain.PermViewAllCompanies, domain.PermDeleteCompany}, nil)
	require.NoError(t, f.svc.ForceDelete(ctx, admin, co.ID))

	var companies, members, listings int64
	f.db.Unscoped().Model(&domain.Company{}).Count(&companies)
	f.db.Model(&domain.CompanyUser{}).Count(&members)
	f.db.Unscoped().Model(&domain.JobListing{}).Count(&listings)
	assert.Zero(t, companies)
	assert.Zero(t, members)
	assert.Zero(t, listings)

	_, err = f.files.Resolve(ctx, co.RegistrationDocRef)
	assert.ErrorIs(t, err, storage.ErrNotFound, "assets are reclaimed")
}

func TestListAllRequiresOversight(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := f.newOwnerActor(t, "founder@list.test")
	_, err := f.svc.Onboard(ctx, owner, validInput())
	require.NoError(t, err)

	owner = f.reloadActor(t, owner.UserID)
	_, _, err = f.svc.ListAll(ctx, owner, 0, 20, false)
	assert.ErrorIs(t, err, domain.ErrDenied)

	admin := policy.NewActor("admin-1", []string{domain.PermViewAllCompanies}, nil)
	items, total, err := f.svc.ListAll(ctx, admin, 0, 20, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)
}

func TestOpenRegistrationDocGating(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := f.newOwnerActor(t, "founder@doc.test")
	co, err := f.svc.Onboard(ctx, owner, validInput())
	require.NoError(t, err)
	owner = f.reloadActor(t, owner.UserID)

	// member can read
	rc, err := f.svc.OpenRegistrationDoc(ctx, owner, co.RegistrationDocRef)
	require.NoError(t, err)
	rc.Close()

	// stranger with no tokens cannot
	stranger := policy.NewActor("s-1", nil, nil)
	_, err = f.svc.OpenRegistrationDoc(ctx, stranger, co.RegistrationDocRef)
	assert.ErrorIs(t, err, domain.ErrDenied)

	// oversight token can
	admin := policy.NewActor("admin-1", []string{domain.PermViewAllCompanies}, nil)
	rc, err = f.svc.OpenRegistrationDoc(ctx, admin, co.RegistrationDocRef)
	require.NoError(t, err)
	rc.Close()

	// unknown reference is NotFound, not a permission probe
	_, err = f.svc.OpenRegistrationDoc(ctx, admin, "restricted/registration-documents/nope.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
