package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisk(t *testing.T) *Disk {
	t.Helper()
	root := t.TempDir()
	d, err := NewDisk(filepath.Join(root, "public"), filepath.Join(root, "restricted"))
	require.NoError(t, err)
	return d
}

func TestStoreAndResolve(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	ref, err := d.Store(ctx, strings.NewReader("hello"), Hint{
		Bucket: BucketRestricted, Dir: "registration-documents", Ext: ".pdf",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "restricted/registration-documents/"))
	assert.True(t, strings.HasSuffix(ref, ".pdf"))

	rc, err := d.Resolve(ctx, ref)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(b))
}

func TestStoreGeneratesDistinctNames(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	hint := Hint{Bucket: BucketPublic, Dir: "company-logos", Ext: ".png"}
	a, err := d.Store(ctx, strings.NewReader("a"), hint)
	require.NoError(t, err)
	b, err := d.Store(ctx, strings.NewReader("b"), hint)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDelete(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	ref, err := d.Store(ctx, strings.NewReader("x"), Hint{Bucket: BucketPublic, Dir: "d"})
	require.NoError(t, err)
	require.NoError(t, d.Delete(ctx, ref))

	_, err = d.Resolve(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, d.Delete(ctx, ref), ErrNotFound)
}

func TestUnknownBucketRejected(t *testing.T) {
	d := newDisk(t)
	_, err := d.Store(context.Background(), strings.NewReader("x"), Hint{Bucket: "secret"})
	assert.Error(t, err)
}

func TestRefsCannotEscapeBucketRoot(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	for _, ref := range []string{
		"public/../../etc/passwd",
		"restricted/../public/x.png",
		"public",
		"",
	} {
		_, err := d.Resolve(ctx, ref)
		assert.Error(t, err, "ref %q must be rejected", ref)
		assert.NotErrorIs(t, err, ErrNotFound, "ref %q fails validation before hitting the filesystem", ref)
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.test/public/company-logos/a.png",
		PublicURL("https://cdn.test/", "public/company-logos/a.png"))
	assert.Empty(t, PublicURL("https://cdn.test", "restricted/registration-documents/a.pdf"),
		"restricted refs never get a public URL")
	assert.Empty(t, PublicURL("https://cdn.test", ""))
}
