package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"jobboard/pkg/utils"
)

// 两个逻辑桶：public 直接出 URL；restricted 必须经过鉴权路由
const (
	BucketPublic     = "public"
	BucketRestricted = "restricted"
)

var ErrNotFound = errors.New("storage: object not found")

// Hint 决定对象落在哪个桶的哪个目录，文件名由 Store 生成
type Hint struct {
	Bucket string
	Dir    string // 例如 "company-logos"
	Ext    string // 带点，例如 ".pdf"
}

// Storage 外部存储协作者。引用是 "bucket/dir/name" 形式的字符串
type Storage interface {
	Store(ctx context.Context, r io.Reader, hint Hint) (string, error)
	Delete(ctx context.Context, ref string) error
	Resolve(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Disk 本地磁盘实现；对象仓库可换成任意实现了 Storage 的后端
type Disk struct {
	PublicRoot     string
	RestrictedRoot string
}

func NewDisk(publicRoot, restrictedRoot string) (*Disk, error) {
	for _, dir := range []string{publicRoot, restrictedRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: init root %s: %w", dir, err)
		}
	}
	return &Disk{PublicRoot: publicRoot, RestrictedRoot: restrictedRoot}, nil
}

func (d *Disk) root(bucket string) (string, error) {
	switch bucket {
	case BucketPublic:
		return d.PublicRoot, nil
	case BucketRestricted:
		return d.RestrictedRoot, nil
	}
	return "", fmt.Errorf("storage: unknown bucket %q", bucket)
}

// pathOf 校验引用不逃出桶根目录
func (d *Disk) pathOf(ref string) (string, error) {
	bucket, rest, ok := strings.Cut(ref, "/")
	if !ok || rest == "" {
		return "", fmt.Errorf("storage: malformed ref %q", ref)
	}
	root, err := d.root(bucket)
	if err != nil {
		return "", err
	}
	clean := path.Clean(rest)
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("storage: malformed ref %q", ref)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

func (d *Disk) Store(ctx context.Context, r io.Reader, hint Hint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := d.root(hint.Bucket); err != nil {
		return "", err
	}
	name := utils.NewID() + hint.Ext
	ref := path.Join(hint.Bucket, hint.Dir, name)
	full, err := d.pathOf(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return ref, nil
}

func (d *Disk) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.pathOf(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (d *Disk) Resolve(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := d.pathOf(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// PublicURL 公共桶对象的访问地址；非 public 引用返回空串
func PublicURL(baseURL, ref string) string {
	if ref == "" || !strings.HasPrefix(ref, BucketPublic+"/") {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + ref
}
