package domain

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// 业务错误（哨兵），由 transport 层统一映射成 code
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrDenied    = errors.New("permission denied")
	ErrNoCompany = errors.New("no company associated")
)

// ProtectedEntityError 保留角色/权限被修改时返回；不看操作者权限，直接拒绝
type ProtectedEntityError struct {
	Kind string // "role" | "permission"
	Name string
}

func (e *ProtectedEntityError) Error() string {
	return fmt.Sprintf("%s %q is protected and cannot be modified", e.Kind, e.Name)
}

func ProtectedRole(name string) error       { return &ProtectedEntityError{Kind: "role", Name: name} }
func ProtectedPermission(name string) error { return &ProtectedEntityError{Kind: "permission", Name: name} }

// ValidationError 按字段收集，整体返回给前端逐项展示
type ValidationError struct {
	Fields map[string]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) *ValidationError {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
	return e
}

func (e *ValidationError) Has() bool { return len(e.Fields) > 0 }

// OrNil 没有收集到任何字段错误时返回 nil，方便 `return v.OrNil()`
func (e *ValidationError) OrNil() error {
	if e.Has() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func Invalid(field, msg string) error { return NewValidation().Add(field, msg) }

// IsDupKey 不依赖 gorm.ErrDuplicatedKey 的驱动支持，同时按信息文本兜底
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
