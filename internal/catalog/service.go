// Package catalog manages the global Skill and EmploymentBenefit
// registries consumed by job listings.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobboard/internal/core/storage"
	"jobboard/internal/domain"
	"jobboard/internal/policy"
	"jobboard/internal/revision"
	"jobboard/pkg/utils"
)

type Service struct {
	db    *gorm.DB
	files storage.Storage
	log   *zap.Logger

	skillPol   policy.Skill
	benefitPol policy.Benefit
}

func NewService(db *gorm.DB, files storage.Storage, log *zap.Logger) *Service {
	return &Service{db: db, files: files, log: log.Named("catalog")}
}

// IconUpload 边界层已校验过 SVG 类型与大小
type IconUpload struct {
	Name string
	Data []byte
}

// ---------- Skill ----------

func (s *Service) CreateSkill(ctx context.Context, actor *policy.Actor, name string) (*domain.Skill, error) {
	if !s.skillPol.CanCreate(actor) {
		return nil, policy.Deny()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "this field is required")
	}
	skill := &domain.Skill{ID: utils.NewID(), Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(skill).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntitySkill, skill.ID, skill)
	})
	if err != nil {
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return skill, nil
}

func (s *Service) UpdateSkill(ctx context.Context, actor *policy.Actor, id, name string) (*domain.Skill, error) {
	if !s.skillPol.CanUpdate(actor) {
		return nil, policy.Deny()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "this field is required")
	}
	var skill domain.Skill
	if err := s.db.WithContext(ctx).First(&skill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	skill.Name = name
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&skill).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntitySkill, skill.ID, &skill)
	})
	if err != nil {
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return &skill, nil
}

func (s *Service) DeleteSkill(ctx context.Context, actor *policy.Actor, id string) error {
	if !s.skillPol.CanDelete(actor) {
		return policy.Deny()
	}
	var skill domain.Skill
	if err := s.db.WithContext(ctx).First(&skill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&skill).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntitySkill, skill.ID, &skill)
	})
}

// ---------- EmploymentBenefit ----------

func (s *Service) CreateBenefit(ctx context.Context, actor *policy.Actor, name string, icon *IconUpload) (*domain.EmploymentBenefit, error) {
	if !s.benefitPol.CanCreate(actor) {
		return nil, policy.Deny()
	}
	name = strings.TrimSpace(name)
	v := domain.NewValidation()
	if name == "" {
		v.Add("name", "this field is required")
	}
	if icon == nil {
		v.Add("icon", "an icon is required")
	}
	if v.Has() {
		return nil, v
	}

	iconRef, err := s.files.Store(ctx, bytes.NewReader(icon.Data),
		storage.Hint{Bucket: storage.BucketPublic, Dir: "employment-benefits", Ext: ".svg"})
	if err != nil {
		return nil, err
	}
	benefit := &domain.EmploymentBenefit{ID: utils.NewID(), Name: name, IconRef: iconRef}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(benefit).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityBenefit, benefit.ID, benefit)
	})
	if err != nil {
		s.deleteAsset(ctx, iconRef)
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return benefit, nil
}

func (s *Service) UpdateBenefit(ctx context.Context, actor *policy.Actor, id, name string, icon *IconUpload) (*domain.EmploymentBenefit, error) {
	if !s.benefitPol.CanUpdate(actor) {
		return nil, policy.Deny()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "this field is required")
	}
	var benefit domain.EmploymentBenefit
	if err := s.db.WithContext(ctx).First(&benefit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	oldIcon := ""
	if icon != nil {
		ref, err := s.files.Store(ctx, bytes.NewReader(icon.Data),
			storage.Hint{Bucket: storage.BucketPublic, Dir: "employment-benefits", Ext: ".svg"})
		if err != nil {
			return nil, err
		}
		oldIcon = benefit.IconRef
		benefit.IconRef = ref
	}
	benefit.Name = name

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&benefit).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityBenefit, benefit.ID, &benefit)
	})
	if err != nil {
		if icon != nil {
			s.deleteAsset(ctx, benefit.IconRef)
		}
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	if oldIcon != "" {
		s.deleteAsset(ctx, oldIcon)
	}
	return &benefit, nil
}

// DeleteBenefit 资产与记录视为一个逻辑操作；资产删不掉只记日志，不拦记录删除
func (s *Service) DeleteBenefit(ctx context.Context, actor *policy.Actor, id string) error {
	if !s.benefitPol.CanDelete(actor) {
		return policy.Deny()
	}
	var benefit domain.EmploymentBenefit
	if err := s.db.WithContext(ctx).First(&benefit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if benefit.IconRef != "" {
		s.deleteAsset(ctx, benefit.IconRef)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&benefit).Error; err != nil {
			return err
		}
		return revision.Log(tx, revision.EntityBenefit, benefit.ID, &benefit)
	})
}

// ---------- 配置总览（view 边界负载） ----------

type Row struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	IconRef string          `json:"iconRef,omitempty"`
	Can     map[string]bool `json:"can"`
}

type ConfigurationView struct {
	Skills   []Row           `json:"skills"`
	Benefits []Row           `json:"employmentBenefits"`
	Can      map[string]bool `json:"can"`
}

// ListForConfiguration 已按操作者权限过滤的配置负载；
// 无查看权的操作者拿不到任何行
func (s *Service) ListForConfiguration(ctx context.Context, actor *policy.Actor) (*ConfigurationView, error) {
	if !s.skillPol.CanViewAny(actor) || !s.benefitPol.CanViewAny(actor) {
		return nil, policy.Deny()
	}
	var skills []domain.Skill
	if err := s.db.WithContext(ctx).Order("name").Find(&skills).Error; err != nil {
		return nil, err
	}
	var benefits []domain.EmploymentBenefit
	if err := s.db.WithContext(ctx).Order("name").Find(&benefits).Error; err != nil {
		return nil, err
	}
	view := &ConfigurationView{
		Skills:   make([]Row, 0, len(skills)),
		Benefits: make([]Row, 0, len(benefits)),
		Can: map[string]bool{
			"create_skill":              s.skillPol.CanCreate(actor),
			"create_employment_benefit": s.benefitPol.CanCreate(actor),
		},
	}
	for _, sk := range skills {
		view.Skills = append(view.Skills, Row{
			ID:   sk.ID,
			Name: sk.Name,
			Can: map[string]bool{
				"update_skill": s.skillPol.CanUpdate(actor),
				"delete_skill": s.skillPol.CanDelete(actor),
			},
		})
	}
	for _, b := range benefits {
		view.Benefits = append(view.Benefits, Row{
			ID:      b.ID,
			Name:    b.Name,
			IconRef: b.IconRef,
			Can: map[string]bool{
				"update_employment_benefit": s.benefitPol.CanUpdate(actor),
				"delete_employment_benefit": s.benefitPol.CanDelete(actor),
			},
		})
	}
	return view, nil
}

// SkillHistory / BenefitHistory 版本链查询
func (s *Service) SkillHistory(ctx context.Context, actor *policy.Actor, id string) ([]domain.Revision, error) {
	if !s.skillPol.CanViewAny(actor) {
		return nil, policy.Deny()
	}
	return revision.History(s.db.WithContext(ctx), revision.EntitySkill, id)
}

func (s *Service) BenefitHistory(ctx context.Context, actor *policy.Actor, id string) ([]domain.Revision, error) {
	if !s.benefitPol.CanViewAny(actor) {
		return nil, policy.Deny()
	}
	return revision.History(s.db.WithContext(ctx), revision.EntityBenefit, id)
}

func (s *Service) deleteAsset(ctx context.Context, ref string) {
	if err := s.files.Delete(ctx, ref); err != nil {
		s.log.Warn("icon asset delete failed", zap.String("ref", ref), zap.Error(err))
	}
}
