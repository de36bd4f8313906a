package policy

import "jobboard/internal/domain"

// 目录实体（技能/福利）全部走配置管理令牌

type Skill struct{}

func (Skill) CanViewAny(a *Actor) bool { return a.Can(domain.PermManageListingConfig) }
func (Skill) CanCreate(a *Actor) bool  { return a.Can(domain.PermManageListingConfig) }
func (Skill) CanUpdate(a *Actor) bool  { return a.Can(domain.PermManageListingConfig) }
func (Skill) CanDelete(a *Actor) bool  { return a.Can(domain.PermManageListingConfig) }
func (Skill) CanRestore(a *Actor) bool { return false }

type Benefit struct{}

func (Benefit) CanViewAny(a *Actor) bool { return a.Can(domain.PermManageListingConfig) }
func (Benefit) CanCreate(a *Actor) bool  { return a.Can(domain.PermManageListingConfig) }
func (Benefit) CanUpdate(a *Actor) bool  { return a.Can(domain.PermManageListingConfig) }
func (Benefit) CanDelete(a *Actor) bool  { return a.Can(domain.PermManageListingConfig) }
func (Benefit) CanRestore(a *Actor) bool { return false }
