// Package company implements the company lifecycle: the onboarding
// transaction that takes a user from "no company" to "active", and the
// management surface (update, soft delete, restore, force delete).
package company

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/mail"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobboard/internal/core/storage"
	"jobboard/internal/domain"
	"jobboard/internal/identity"
	"jobboard/internal/policy"
	"jobboard/pkg/utils"
)

// FileUpload 边界层已经做过大小/类型校验的上传内容
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *FileUpload) ext() string {
	if e := path.Ext(f.Name); e != "" {
		return strings.ToLower(e)
	}
	switch f.ContentType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}

type OnboardInput struct {
	Name               string
	RegistrationNumber string
	Industry           string
	Size               string
	Type               string
	Address            string
	Website            string
	Facebook           string
	Twitter            string
	Instagram          string
	Youtube            string
	Linkedin           string
	TeamEmails         []string

	RegistrationDoc *FileUpload
	Logo            *FileUpload
	Banner          *FileUpload
}

type UpdateInput struct {
	Name               string
	RegistrationNumber string
	Industry           string
	Size               string
	Type               string
	Address            string
	Website            string
	Facebook           string
	Twitter            string
	Instagram          string
	Youtube            string
	Linkedin           string

	RegistrationDoc *FileUpload
	Logo            *FileUpload
	Banner          *FileUpload
	RemoveBanner    bool
}

type Service struct {
	db       *gorm.DB
	store    *identity.Store
	files    storage.Storage
	log      *zap.Logger
	required map[string]struct{}
	pol      policy.Company
}

func NewService(db *gorm.DB, store *identity.Store, files storage.Storage, log *zap.Logger, requiredFields []string) *Service {
	req := make(map[string]struct{}, len(requiredFields))
	for _, f := range requiredFields {
		req[f] = struct{}{}
	}
	return &Service{
		db:       db,
		store:    store,
		files:    files,
		log:      log.Named("company"),
		required: req,
	}
}

// HasCompany onboarding 守卫用的谓词，纯查询不改状态
func (s *Service) HasCompany(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.CompanyUser{}).
		Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}

// Onboard NoCompany→Active 的原子转移：公司、owner 关联、editor 邀请
// 全部落在一个事务里。文件先落存储，事务失败时尽力回收，避免悬挂引用
func (s *Service) Onboard(ctx context.Context, actor *policy.Actor, in OnboardInput) (*domain.Company, error) {
	if !s.pol.CanCreate(actor) {
		return nil, policy.Deny()
	}
	if err := s.validateOnboard(&in); err != nil {
		return nil, err
	}

	// 已拥有公司的重复提交：不动存储直接冲突
	var owned int64
	if err := s.db.WithContext(ctx).Model(&domain.CompanyUser{}).
		Where("user_id = ? AND role = ?", actor.UserID, domain.MemberOwner).
		Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned > 0 {
		return nil, domain.ErrConflict
	}

	var stored []string
	cleanup := func() {
		for _, ref := range stored {
			if err := s.files.Delete(context.WithoutCancel(ctx), ref); err != nil {
				s.log.Warn("orphan upload cleanup failed", zap.String("ref", ref), zap.Error(err))
			}
		}
	}

	docRef, err := s.putFile(ctx, in.RegistrationDoc, storage.BucketRestricted, "registration-documents")
	if err != nil {
		return nil, err
	}
	if docRef != "" {
		stored = append(stored, docRef)
	}
	logoRef, err := s.putFile(ctx, in.Logo, storage.BucketPublic, "company-logos")
	if err != nil {
		cleanup()
		return nil, err
	}
	if logoRef != "" {
		stored = append(stored, logoRef)
	}
	bannerRef, err := s.putFile(ctx, in.Banner, storage.BucketPublic, "company-banners")
	if err != nil {
		cleanup()
		return nil, err
	}
	if bannerRef != "" {
		stored = append(stored, bannerRef)
	}

	company := &domain.Company{
		ID:                 utils.NewID(),
		Name:               in.Name,
		RegistrationNumber: in.RegistrationNumber,
		RegistrationDocRef: docRef,
		Industry:           in.Industry,
		Size:               in.Size,
		Type:               in.Type,
		Address:            in.Address,
		LogoRef:            logoRef,
		BannerRef:          bannerRef,
		Website:            in.Website,
		Facebook:           in.Facebook,
		Twitter:            in.Twitter,
		Instagram:          in.Instagram,
		Youtube:            in.Youtube,
		Linkedin:           in.Linkedin,
		InviteToken:        utils.NewToken(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		// (user_id, role) 唯一键在这里拦并发的第二次提交
		if err := tx.Create(&domain.CompanyUser{
			CompanyID:  company.ID,
			UserID:     actor.UserID,
			Role:       domain.MemberOwner,
			AssignedAt: time.Now(),
		}).Error; err != nil {
			return err
		}
		for _, email := range in.TeamEmails {
			email = strings.TrimSpace(email)
			if email == "" {
				continue
			}
			if err := s.inviteEditor(tx, company.ID, email); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		cleanup()
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	s.log.Info("company onboarded",
		zap.String("company_id", company.ID),
		zap.String("owner_id", actor.UserID),
		zap.Int("invited", len(in.TeamEmails)),
	)
	return company, nil
}

// inviteEditor create-or-reuse 用户并挂 editor 关联；已是成员则跳过
func (s *Service) inviteEditor(tx *gorm.DB, companyID, email string) error {
	var user domain.User
	err := tx.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = domain.User{ID: utils.NewID(), Email: email}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		var editorRole domain.Role
		if err := tx.First(&editorRole, "name = ?", domain.RoleCompanyEditor).Error; err == nil {
			if err := tx.Model(&user).Association("Roles").Append(&editorRole); err != nil {
				return err
			}
		}
	} else if err != nil {
		return err
	}
	// 成员关系是集合：owner 或已有 editor 都不再插入
	var n int64
	if err := tx.Model(&domain.CompanyUser{}).
		Where("company_id = ? AND user_id = ?", companyID, user.ID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return tx.Create(&domain.CompanyUser{
		CompanyID:  companyID,
		UserID:     user.ID,
		Role:       domain.MemberEditor,
		AssignedAt: time.Now(),
	}).Error
}

func (s *Service) validateOnboard(in *OnboardInput) error {
	v := domain.NewValidation()
	req := func(key, val, field string) {
		if _, ok := s.required[key]; ok && strings.TrimSpace(val) == "" {
			v.Add(field, "this field is required")
		}
	}
	req("name", in.Name, "company_name")
	req("registration_number", in.RegistrationNumber, "registration_number")
	req("industry", in.Industry, "industry")
	req("size", in.Size, "company_size")
	req("type", in.Type, "company_type")
	req("address", in.Address, "address")
	if _, ok := s.required["registration_document"]; ok && in.RegistrationDoc == nil {
		v.Add("registration_document", "a registration document is required")
	}
	if _, ok := s.required["logo"]; ok && in.Logo == nil {
		v.Add("logo", "a company logo is required")
	}
	if _, ok := s.required["banner"]; ok && in.Banner == nil {
		v.Add("banner", "a company banner is required")
	}
	for _, email := range in.TeamEmails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		if _, err := mail.ParseAddress(email); err != nil {
			v.Add("team_members", "invalid email address")
			break
		}
	}
	return v.OrNil()
}

func (s *Service) putFile(ctx context.Context, f *FileUpload, bucket, dir string) (string, error) {
	if f == nil {
		return "", nil
	}
	return s.files.Store(ctx, bytes.NewReader(f.Data), storage.Hint{Bucket: bucket, Dir: dir, Ext: f.ext()})
}

// Get 操作者自己的公司
func (s *Service) Get(ctx context.Context, actor *policy.Actor) (*domain.Company, error) {
	company, err := s.store.CompanyOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNoCompany
	}
	if !s.pol.CanView(actor, company.ID) {
		return nil, policy.Deny()
	}
	return company, nil
}

// Update 文件替换会删掉旧资产；banner 可显式移除
func (s *Service) Update(ctx context.Context, actor *policy.Actor, in UpdateInput) (*domain.Company, error) {
	company, err := s.store.CompanyOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNoCompany
	}
	if !s.pol.CanUpdate(actor, company.ID) {
		return nil, policy.Deny()
	}

	v := domain.NewValidation()
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "this field is required")
	}
	if strings.TrimSpace(in.RegistrationNumber) == "" {
		v.Add("registration_number", "this field is required")
	}
	if v.Has() {
		return nil, v
	}

	var replaced []string
	if in.RegistrationDoc != nil {
		ref, err := s.putFile(ctx, in.RegistrationDoc, storage.BucketRestricted, "registration-documents")
		if err != nil {
			return nil, err
		}
		if company.RegistrationDocRef != "" {
			replaced = append(replaced, company.RegistrationDocRef)
		}
		company.RegistrationDocRef = ref
	}
	if in.Logo != nil {
		ref, err := s.putFile(ctx, in.Logo, storage.BucketPublic, "company-logos")
		if err != nil {
			return nil, err
		}
		if company.LogoRef != "" {
			replaced = append(replaced, company.LogoRef)
		}
		company.LogoRef = ref
	}
	switch {
	case in.Banner != nil:
		ref, err := s.putFile(ctx, in.Banner, storage.BucketPublic, "company-banners")
		if err != nil {
			return nil, err
		}
		if company.BannerRef != "" {
			replaced = append(replaced, company.BannerRef)
		}
		company.BannerRef = ref
	case in.RemoveBanner && company.BannerRef != "":
		replaced = append(replaced, company.BannerRef)
		company.BannerRef = ""
	}

	company.Name = in.Name
	company.RegistrationNumber = in.RegistrationNumber
	company.Industry = in.Industry
	company.Size = in.Size
	company.Type = in.Type
	company.Address = in.Address
	company.Website = in.Website
	company.Facebook = in.Facebook
	company.Twitter = in.Twitter
	company.Instagram = in.Instagram
	company.Youtube = in.Youtube
	company.Linkedin = in.Linkedin

	if err := s.db.WithContext(ctx).Save(company).Error; err != nil {
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	// 旧资产删除失败只记日志，不影响主流程
	for _, ref := range replaced {
		if err := s.files.Delete(ctx, ref); err != nil {
			s.log.Warn("stale asset delete failed", zap.String("ref", ref), zap.Error(err))
		}
	}
	return company, nil
}

// SoftDelete 可恢复删除
func (s *Service) SoftDelete(ctx context.Context, actor *policy.Actor, companyID string) error {
	if !s.pol.CanDelete(actor, companyID) {
		return policy.Deny()
	}
	res := s.db.WithContext(ctx).Delete(&domain.Company{}, "id = ?", companyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) Restore(ctx context.Context, actor *policy.Actor, companyID string) error {
	if !s.pol.CanRestore(actor, companyID) {
		return policy.Deny()
	}
	res := s.db.WithContext(ctx).Unscoped().Model(&domain.Company{}).
		Where("id = ? AND deleted_at IS NOT NULL", companyID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ForceDelete 管理面硬删：公司、成员关系、职位一起清，资产尽力回收
func (s *Service) ForceDelete(ctx context.Context, actor *policy.Actor, companyID string) error {
	if !s.pol.CanForceDelete(actor, companyID) {
		return policy.Deny()
	}
	var company domain.Company
	err := s.db.WithContext(ctx).Unscoped().First(&company, "id = ?", companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", companyID).Delete(&domain.CompanyUser{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("company_id = ?", companyID).Delete(&domain.JobListing{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&company).Error
	})
	if err != nil {
		return err
	}
	for _, ref := range []string{company.RegistrationDocRef, company.LogoRef, company.BannerRef} {
		if ref == "" {
			continue
		}
		if err := s.files.Delete(ctx, ref); err != nil {
			s.log.Warn("asset delete failed", zap.String("ref", ref), zap.Error(err))
		}
	}
	return nil
}

// ListAll 管理面总览
func (s *Service) ListAll(ctx context.Context, actor *policy.Actor, offset, limit int, withDeleted bool) ([]domain.Company, int64, error) {
	if !s.pol.CanViewAny(actor) {
		return nil, 0, policy.Deny()
	}
	q := s.db.WithContext(ctx).Model(&domain.Company{})
	if withDeleted {
		q = q.Unscoped()
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var companies []domain.Company
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// OpenRegistrationDoc 受限桶访问：公司成员或持 view all companies 的操作者
func (s *Service) OpenRegistrationDoc(ctx context.Context, actor *policy.Actor, ref string) (io.ReadCloser, error) {
	var company domain.Company
	err := s.db.WithContext(ctx).First(&company, "registration_doc_ref = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.LinkedTo(company.ID) && !actor.Can(domain.PermViewAllCompanies) {
		return nil, policy.Deny()
	}
	rc, err := s.files.Resolve(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return rc, err
}
