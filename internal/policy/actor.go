// Package policy holds the per-entity authorization rules. Decisions are
// pure functions of the actor's permission tokens and company linkage;
// rules never branch on role names.
package policy

import "jobboard/internal/domain"

// Actor 已认证用户的能力视图，由 identity.Store 在请求入口装载一次
type Actor struct {
	UserID string
	perms  map[string]struct{}
	links  map[string]string // companyID -> owner|editor
}

func NewActor(userID string, perms []string, links map[string]string) *Actor {
	ps := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		ps[p] = struct{}{}
	}
	if links == nil {
		links = map[string]string{}
	}
	return &Actor{UserID: userID, perms: ps, links: links}
}

func (a *Actor) Can(token string) bool {
	_, ok := a.perms[token]
	return ok
}

// LinkedTo 任意关系挂在公司上
func (a *Actor) LinkedTo(companyID string) bool {
	_, ok := a.links[companyID]
	return ok
}

func (a *Actor) LinkedAs(companyID, relation string) bool {
	return a.links[companyID] == relation
}

func (a *Actor) Permissions() []string {
	out := make([]string, 0, len(a.perms))
	for p := range a.perms {
		out = append(out, p)
	}
	return out
}

// Deny 统一的拒绝结果，不泄露实体是否存在
func Deny() error { return domain.ErrDenied }
