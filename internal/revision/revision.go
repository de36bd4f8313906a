package revision

import (
	"encoding/json"

	"gorm.io/gorm"

	"jobboard/internal/domain"
)

const (
	EntitySkill   = "skill"
	EntityBenefit = "employment_benefit"
	EntityListing = "job_listing"
)

// Log 在调用方的事务里追加一条快照，版本号取当前最大值 +1。
// 必须与实体写入同事务，否则版本链可能断档
func Log(tx *gorm.DB, entityType, entityID string, snapshot any) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	var last int
	err = tx.Model(&domain.Revision{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&last).Error
	if err != nil {
		return err
	}
	return tx.Create(&domain.Revision{
		EntityType: entityType,
		EntityID:   entityID,
		Revision:   last + 1,
		Snapshot:   string(raw),
	}).Error
}

// History 按版本号升序返回实体的全部快照
func History(db *gorm.DB, entityType, entityID string) ([]domain.Revision, error) {
	var revs []domain.Revision
	err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("revision ASC").
		Find(&revs).Error
	return revs, err
}
