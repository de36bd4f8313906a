package policy

import "jobboard/internal/domain"

// Listing 职位策略：令牌 + 公司归属（owner 或 editor 均可）
type Listing struct{}

func (Listing) CanViewAny(a *Actor) bool {
	return a.Can(domain.PermManageJobListings)
}

func (Listing) CanView(a *Actor, companyID string) bool {
	return a.Can(domain.PermManageJobListings) && a.LinkedTo(companyID)
}

func (Listing) CanCreate(a *Actor, companyID string) bool {
	return a.Can(domain.PermManageJobListings) && a.LinkedTo(companyID)
}

func (Listing) CanUpdate(a *Actor, companyID string) bool {
	return a.Can(domain.PermManageJobListings) && a.LinkedTo(companyID)
}

func (Listing) CanDelete(a *Actor, companyID string) bool {
	return a.Can(domain.PermManageJobListings) && a.LinkedTo(companyID)
}
