package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/storefront-e2e/internal/config"
)

func TestLocalStore_PutWritesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	key := Key("run-1", "Add to cart", "Add to cart - failed", "png")
	loc, err := store.Put(context.Background(), key, []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1", "Add to cart", "Add to cart - failed.png"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestS3Store_PutThenGet(t *testing.T) {
	t.Parallel()
	store := TestS3Store(t, "e2e-artifacts")
	ctx := context.Background()

	loc, err := store.Put(ctx, "run-1/report.json", []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://e2e-artifacts/run-1/report.json", loc)

	data, err := store.Get(ctx, "run-1/report.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	_, err = store.Get(ctx, "run-1/missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewStore_PicksLocalWithoutBucket(t *testing.T) {
	t.Parallel()
	p, _ := config.Builtin("default")
	p.ArtifactsDir = t.TempDir()
	store, err := NewStore(context.Background(), &p)
	require.NoError(t, err)
	_, ok := store.(*LocalStore)
	assert.True(t, ok)
}

func TestNewStore_PicksS3WithBucket(t *testing.T) {
	t.Parallel()
	p, _ := config.Builtin("default")
	p.ArtifactsBucket = "e2e-artifacts"
	p.ArtifactsEndpoint = "http://127.0.0.1:9"
	store, err := NewStore(context.Background(), &p)
	require.NoError(t, err)
	s3Store, ok := store.(*S3Store)
	require.True(t, ok)
	assert.Equal(t, "e2e-artifacts", s3Store.BucketName())
}

func testKey_AlwaysThreeSafeSegments(t *rapid.T) {
	run := rapid.String().Draw(t, "run")
	scenario := rapid.String().Draw(t, "scenario")
	name := rapid.String().Draw(t, "name")

	key := Key(run, scenario, name, "png")
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		t.Fatalf("Key(%q,%q,%q) = %q, want 3 segments", run, scenario, name, key)
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			t.Fatalf("unsafe segment %q in %q", p, key)
		}
	}
}

func TestKey_AlwaysThreeSafeSegments(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testKey_AlwaysThreeSafeSegments)
}
