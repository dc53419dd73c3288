package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

func TestFilenames(t *testing.T) {
	assert.Equal(t, "website_www_acme_com.json", CrawlFilename("www.acme.com"))
	assert.Equal(t, "website_127_0_0_1_8080.json", CrawlFilename("127.0.0.1:8080"))
	assert.Equal(t, "profile_acme_corp.json", ProfileFilename("Acme Corp"))
	assert.Equal(t, "profile_a_b_c.json", ProfileFilename("A/B C"))

	long := ProfileFilename(strings.Repeat("Grüne Energie ", 40))
	assert.NoError(t, ValidateName(long))
	assert.LessOrEqual(t, len(long), utils.MaxFilenameBytes)
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{name: "profile_acme.json", wantErr: false},
		{name: "", wantErr: true},
		{name: "../secrets.json", wantErr: true},
		{name: "nested/doc.json", wantErr: true},
		{name: `nested\doc.json`, wantErr: true},
		{name: ".hidden.json", wantErr: true},
		{name: "notes.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	result := models.NewAggregationResult("Acme")

	data, err := Stamp(result, now)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "company_name")
	assert.Contains(t, doc, "profile")

	var meta Metadata
	require.NoError(t, json.Unmarshal(doc["_metadata"], &meta))
	assert.Equal(t, Metadata{Timestamp: "2024-05-01T12:00:00Z", Version: "1.0"}, meta)

	_, err = Stamp([]string{"not", "an", "object"}, now)
	assert.Error(t, err)
}

// exerciseStore runs the same lifecycle against any backend
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	files, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	result := models.NewCrawlResult("https://acme.com", "acme.com")
	_, err = store.Save(ctx, "website_acme_com.json", result)
	require.NoError(t, err)
	_, err = store.Save(ctx, "profile_acme.json", models.NewAggregationResult("Acme"))
	require.NoError(t, err)

	data, err := store.Load(ctx, "website_acme_com.json")
	require.NoError(t, err)
	var loaded models.CrawlResult
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "acme.com", loaded.Domain)
	assert.Contains(t, string(data), `"_metadata"`)

	files, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "profile_acme.json", files[0].Name)
	assert.Equal(t, "website_acme_com.json", files[1].Name)
	assert.Positive(t, files[1].Size)
	assert.False(t, files[1].Modified.IsZero())

	require.NoError(t, store.Delete(ctx, "profile_acme.json"))
	assert.ErrorIs(t, store.Delete(ctx, "profile_acme.json"), ErrNotFound)

	_, err = store.Load(ctx, "profile_acme.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Load(ctx, "../website_acme_com.json")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = store.Save(ctx, "../escape.json", result)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, dir, store.Dir())

	exerciseStore(t, store)
}

func TestFileStoreLongName(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	name := ProfileFilename(strings.Repeat("Grüne Energie ", 40))
	location, err := store.Save(ctx, name, models.NewAggregationResult("Grüne Energie"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), name), location)

	files, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, name, files[0].Name)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(mr.Addr(), "test:")
	defer store.Close()

	exerciseStore(t, store)

	assert.True(t, mr.Exists("test:website_acme_com.json"))
}

func TestNew(t *testing.T) {
	store, err := New(Options{Type: TypeFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = New(Options{Type: "s3"})
	assert.Error(t, err)
}
