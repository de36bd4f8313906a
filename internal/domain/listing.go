package domain

import (
	"time"

	"gorm.io/gorm"
)

// 雇佣形式
const (
	EmploymentFullTime   = "full time"
	EmploymentPartTime   = "part time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
	EmploymentFreelance  = "freelance"
)

// 工作模式
const (
	ModePhysical = "physical"
	ModeRemote   = "remote"
	ModeHybrid   = "hybrid"
	ModeFlexible = "flexible"
)

var (
	EmploymentTypes = []string{
		EmploymentFullTime, EmploymentPartTime, EmploymentContract,
		EmploymentInternship, EmploymentFreelance,
	}
	WorkModes = []string{ModePhysical, ModeRemote, ModeHybrid, ModeFlexible}
)

// JobListing 公司维度的职位。skills/benefits 存创建时刻的名称快照，
// 不做外键级联（目录删除不回溯已有职位）
type JobListing struct {
	ID             string   `gorm:"primaryKey;type:varchar(32)" json:"id"`
	CompanyID      string   `gorm:"type:varchar(32);not null;index" json:"companyId"`
	Title          string   `gorm:"size:255;not null" json:"title"`
	Description    string   `gorm:"type:text;not null" json:"description"`
	EmploymentType string   `gorm:"size:32;not null" json:"employmentType"`
	Mode           []string `gorm:"serializer:json;not null" json:"mode"`
	Skills         []string `gorm:"serializer:json;not null" json:"skills"`
	Languages      []string `gorm:"serializer:json;not null" json:"languages"`
	Location       string   `gorm:"size:255;not null" json:"location"`
	SalaryCurrency *string  `gorm:"size:3" json:"salaryCurrency"`
	SalaryMin      *int     `json:"salaryMin"`
	SalaryMax      *int     `json:"salaryMax"`
	Benefits       []string `gorm:"serializer:json" json:"benefits"`
	IsActive       bool     `gorm:"not null;default:true" json:"isActive"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (JobListing) TableName() string { return "job_listings" }
