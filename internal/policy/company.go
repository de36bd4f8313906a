package policy

import "jobboard/internal/domain"

// Company 公司策略：权限令牌 + 显式归属，二者都要
type Company struct{}

func (Company) CanViewAny(a *Actor) bool {
	return a.Can(domain.PermViewAllCompanies)
}

func (Company) CanView(a *Actor, companyID string) bool {
	if a.Can(domain.PermViewAllCompanies) {
		return true
	}
	return a.Can(domain.PermViewCompany) && a.LinkedTo(companyID)
}

func (Company) CanCreate(a *Actor) bool {
	return a.Can(domain.PermCreateCompany)
}

func (Company) CanUpdate(a *Actor, companyID string) bool {
	return a.Can(domain.PermEditCompany) && a.LinkedTo(companyID)
}

func (Company) CanDelete(a *Actor, companyID string) bool {
	if a.Can(domain.PermViewAllCompanies) && a.Can(domain.PermDeleteCompany) {
		return true // 管理面
	}
	return a.Can(domain.PermDeleteCompany) && a.LinkedAs(companyID, domain.MemberOwner)
}

func (Company) CanRestore(a *Actor, companyID string) bool {
	if a.Can(domain.PermViewAllCompanies) && a.Can(domain.PermRestoreCompany) {
		return true
	}
	// 软删后归属关系仍在
	return a.Can(domain.PermRestoreCompany) && a.LinkedAs(companyID, domain.MemberOwner)
}

func (Company) CanForceDelete(a *Actor, companyID string) bool {
	return a.Can(domain.PermViewAllCompanies) && a.Can(domain.PermDeleteCompany)
}

func (Company) CanInviteEditor(a *Actor, companyID string) bool {
	return a.Can(domain.PermInviteCompanyEditor) && a.LinkedAs(companyID, domain.MemberOwner)
}
