package domain

import "time"

// Revision 追加式版本日志：目录实体和职位每次变更都在同一事务里留一条快照
type Revision struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	EntityType string `gorm:"size:32;not null;uniqueIndex:uniq_entity_rev,priority:1"`
	EntityID   string `gorm:"type:varchar(32);not null;uniqueIndex:uniq_entity_rev,priority:2"`
	Revision   int    `gorm:"not null;uniqueIndex:uniq_entity_rev,priority:3"`
	Snapshot   string `gorm:"type:text;not null"` // JSON
	CreatedAt  time.Time
}

func (Revision) TableName() string { return "revisions" }
