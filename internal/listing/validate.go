package listing

import (
	"strings"

	"jobboard/internal/domain"
)

// Input 职位创建/更新共用一套入参与校验
type Input struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	EmploymentType string   `json:"employmentType"`
	Mode           []string `json:"mode"`
	Skills         []string `json:"skills"`
	Languages      []string `json:"languages"`
	Location       string   `json:"location"`
	SalaryCurrency *string  `json:"salaryCurrency"`
	SalaryMin      *int     `json:"salaryMin"`
	SalaryMax      *int     `json:"salaryMax"`
	Benefits       []string `json:"benefits"`
	IsActive       *bool    `json:"isActive"`
}

// validateStructural 第一阶段：必填、枚举、数组下限、数值边界
func validateStructural(in *Input) *domain.ValidationError {
	v := domain.NewValidation()
	if strings.TrimSpace(in.Title) == "" {
		v.Add("title", "this field is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		v.Add("description", "this field is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		v.Add("location", "this field is required")
	}
	if !contains(domain.EmploymentTypes, in.EmploymentType) {
		v.Add("employment_type", "invalid employment type")
	}
	if len(in.Mode) == 0 {
		v.Add("mode", "at least one work mode is required")
	} else {
		for _, m := range in.Mode {
			if !contains(domain.WorkModes, m) {
				v.Add("mode", "invalid work mode")
				break
			}
		}
	}
	if len(in.Skills) == 0 {
		v.Add("skills", "at least one skill is required")
	}
	if len(in.Languages) == 0 {
		v.Add("languages", "at least one language is required")
	} else {
		for _, l := range in.Languages {
			if !isISO639(l) {
				v.Add("languages", "languages must be ISO 639-1 codes")
				break
			}
		}
	}
	if in.SalaryMin != nil && *in.SalaryMin < 0 {
		v.Add("salary_min", "must be zero or greater")
	}
	if in.SalaryMax != nil && *in.SalaryMax < 0 {
		v.Add("salary_max", "must be zero or greater")
	}
	if in.SalaryCurrency != nil && !isISO4217(*in.SalaryCurrency) {
		v.Add("salary_currency", "must be an ISO 4217 code")
	}
	return v
}

// validateSalary 第二阶段跨字段规则：币种与上下限同生共死，且 max >= min
func validateSalary(in *Input) *domain.ValidationError {
	v := domain.NewValidation()
	hasCur := in.SalaryCurrency != nil
	hasMin := in.SalaryMin != nil
	hasMax := in.SalaryMax != nil
	switch {
	case hasCur && (!hasMin || !hasMax):
		v.Add("salary_currency", "salary currency requires both minimum and maximum salary values")
	case (hasMin || hasMax) && !hasCur:
		v.Add("salary_currency", "salary values require a currency to be selected")
	}
	if hasMin && hasMax && *in.SalaryMax < *in.SalaryMin {
		v.Add("salary_max", "must be greater than or equal to the minimum salary")
	}
	return v
}

func contains(set []string, val string) bool {
	for _, s := range set {
		if s == val {
			return true
		}
	}
	return false
}

func isISO639(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range strings.ToLower(code) {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isISO4217(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
