package identity

import (
	"context"

	"jobboard/internal/policy"
)

// LoadActor 请求入口装载一次操作者能力视图（权限投影 + 公司归属）
func (s *Store) LoadActor(ctx context.Context, userID string) (*policy.Actor, error) {
	perms, err := s.VisiblePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	links, err := s.Memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	return policy.NewActor(userID, perms, links), nil
}
