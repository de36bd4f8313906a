// Package listing implements the company-scoped job-listing aggregate:
// validation (structural → salary → catalog names → tenancy), CRUD with
// revision snapshots, and the public cached search.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobboard/internal/core/cache"
	"jobboard/internal/domain"
	"jobboard/internal/identity"
	"jobboard/internal/policy"
	"jobboard/internal/revision"
	"jobboard/pkg/utils"
)

const (
	searchVerKey   = "jobs:ver"
	searchCacheTTL = time.Minute
)

type Service struct {
	db    *gorm.DB
	store *identity.Store
	cache *cache.Cache // 可空
	log   *zap.Logger
	pol   policy.Listing
}

func NewService(db *gorm.DB, store *identity.Store, c *cache.Cache, log *zap.Logger) *Service {
	return &Service{db: db, store: store, cache: c, log: log.Named("listing")}
}

// Create 校验顺序：结构 → 薪资跨字段 → 目录名存在 → 归属公司。
// 公司在创建时定死，不支持转移
func (s *Service) Create(ctx context.Context, actor *policy.Actor, in Input) (*domain.JobListing, error) {
	if !actor.Can(domain.PermManageJobListings) {
		return nil, policy.Deny()
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	company, err := s.store.CompanyOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNoCompany
	}
	if !s.pol.CanCreate(actor, company.ID) {
		return nil, policy.Deny()
	}

	l := &domain.JobListing{
		ID:             utils.NewID(),
		CompanyID:      company.ID,
		Title:          in.Title,
		Description:    in.Description,
		EmploymentType: in.EmploymentType,
		Mode:           in.Mode,
		Skills:         in.Skills,
		Languages:      normalizeLangs(in.Languages),
		Location:       in.Location,
		SalaryCurrency: in.SalaryCurrency,
		SalaryMin:      in.SalaryMin,
		SalaryMax:      in.SalaryMax,
		Benefits:       in.Benefits,
		IsActive:       true,
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
	if l.Benefits == nil {
		l.Benefits = []string{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityListing, l.ID, l)
	})
	if err != nil {
		return nil, err
	}
	s.bumpSearch(ctx)
	s.log.Info("job listing created", zap.String("listing_id", l.ID), zap.String("company_id", company.ID))
	return l, nil
}

// Update 同一套校验；company_id 不可变
func (s *Service) Update(ctx context.Context, actor *policy.Actor, id string, in Input) (*domain.JobListing, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.pol.CanUpdate(actor, l.CompanyID) {
		return nil, policy.Deny()
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	l.Title = in.Title
	l.Description = in.Description
	l.EmploymentType = in.EmploymentType
	l.Mode = in.Mode
	l.Skills = in.Skills
	l.Languages = normalizeLangs(in.Languages)
	l.Location = in.Location
	l.SalaryCurrency = in.SalaryCurrency
	l.SalaryMin = in.SalaryMin
	l.SalaryMax = in.SalaryMax
	l.Benefits = in.Benefits
	if l.Benefits == nil {
		l.Benefits = []string{}
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(l).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityListing, l.ID, l)
	})
	if err != nil {
		return nil, err
	}
	s.bumpSearch(ctx)
	return l, nil
}

func (s *Service) Get(ctx context.Context, actor *policy.Actor, id string) (*domain.JobListing, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.pol.CanView(actor, l.CompanyID) {
		return nil, policy.Deny()
	}
	return l, nil
}

// List 操作者所在公司的全部职位
func (s *Service) List(ctx context.Context, actor *policy.Actor) ([]domain.JobListing, error) {
	if !s.pol.CanViewAny(actor) {
		return nil, policy.Deny()
	}
	company, err := s.store.CompanyOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNoCompany
	}
	var listings []domain.JobListing
	err = s.db.WithContext(ctx).
		Where("company_id = ?", company.ID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

func (s *Service) Delete(ctx context.Context, actor *policy.Actor, id string) error {
	l, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.pol.CanDelete(actor, l.CompanyID) {
		return policy.Deny()
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(l).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityListing, l.ID, l)
	})
	if err != nil {
		return err
	}
	s.bumpSearch(ctx)
	return nil
}

func (s *Service) SetActive(ctx context.Context, actor *policy.Actor, id string, active bool) error {
	l, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.pol.CanUpdate(actor, l.CompanyID) {
		return policy.Deny()
	}
	l.IsActive = active
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(l).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityListing, l.ID, l)
	})
	if err != nil {
		return err
	}
	s.bumpSearch(ctx)
	return nil
}

type SearchResult struct {
	Items []domain.JobListing `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

// Search 公开职位搜索；redis 缓存按版本号整组失效
func (s *Service) Search(ctx context.Context, q string, page, size int) (*SearchResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	load := func(ctx context.Context) (*SearchResult, error) {
		return s.search(ctx, q, page, size)
	}
	if s.cache == nil {
		return load(ctx)
	}
	key := fmt.Sprintf("jobs:v%s:q=%s:p%d:s%d", s.cache.Version(ctx, searchVerKey), q, page, size)
	return cache.GetOrLoadJSON[SearchResult](s.cache, ctx, key, searchCacheTTL, load)
}

func (s *Service) search(ctx context.Context, q string, page, size int) (*SearchResult, error) {
	tx := s.db.WithContext(ctx).Model(&domain.JobListing{}).Where("is_active = ?", true)
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("title LIKE ? OR location LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var items []domain.JobListing
	if err := tx.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return nil, err
	}
	return &SearchResult{Items: items, Total: total, Page: page, Size: size}, nil
}

// History 职位的版本链（管理/审计用）
func (s *Service) History(ctx context.Context, actor *policy.Actor, id string) ([]domain.Revision, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.pol.CanView(actor, l.CompanyID) {
		return nil, policy.Deny()
	}
	return revision.History(s.db.WithContext(ctx), revision.EntityListing, id)
}

// validate 阶段一/二在内存判，阶段三查目录（只在写入时刻检查，
// 之后目录删除不回溯已有职位）
func (s *Service) validate(ctx context.Context, in *Input) error {
	if v := validateStructural(in); v.Has() {
		return v
	}
	if v := validateSalary(in); v.Has() {
		return v
	}
	v := domain.NewValidation()
	if err := s.checkCatalog(ctx, &domain.Skill{}, in.Skills, "skills", v); err != nil {
		return err
	}
	if err := s.checkCatalog(ctx, &domain.EmploymentBenefit{}, in.Benefits, "benefits", v); err != nil {
		return err
	}
	return v.OrNil()
}

func (s *Service) checkCatalog(ctx context.Context, model any, names []string, field string, v *domain.ValidationError) error {
	if len(names) == 0 {
		return nil
	}
	var known []string
	if err := s.db.WithContext(ctx).Model(model).Where("name IN ?", names).Pluck("name", &known).Error; err != nil {
		return err
	}
	set := make(map[string]struct{}, len(known))
	for _, n := range known {
		set[n] = struct{}{}
	}
	for _, n := range names {
		if _, ok := set[n]; !ok {
			v.Add(field, fmt.Sprintf("unknown entry %q", n))
			return nil
		}
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.JobListing, error) {
	var l domain.JobListing
	err := s.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Service) bumpSearch(ctx context.Context) {
	if s.cache != nil {
		s.cache.Bump(ctx, searchVerKey)
	}
}

func normalizeLangs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		out = append(out, strings.ToLower(l))
	}
	return out
}
