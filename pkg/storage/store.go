// Package storage persists result documents as stamped JSON under derived
// names, on local disk or in Redis.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const (
	// DocumentVersion is written into every document's metadata
	DocumentVersion = "1.0"

	metadataKey = "_metadata"
	extension   = ".json"

	TypeFile  = "file"
	TypeRedis = "redis"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidName = errors.New("invalid document name")
)

// Metadata is appended to every stored document
type Metadata struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// FileInfo describes one stored document
type FileInfo struct {
	Name     string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store saves and retrieves documents by name
type Store interface {
	// Save stamps doc with metadata and writes it under name, returning
	// where it was written.
	Save(ctx context.Context, name string, doc any) (string, error)
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]FileInfo, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Options selects and configures a Store backend
type Options struct {
	Type        string
	Path        string
	RedisAddr   string
	RedisPrefix string
}

// New opens the backend named by opts.Type
func New(opts Options) (Store, error) {
	switch opts.Type {
	case "", TypeFile:
		return NewFileStore(opts.Path)
	case TypeRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", opts.Type)
	}
}

// Stamp serializes doc, which must encode to a JSON object, and adds the
// metadata block.
func Stamp(doc any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}

	meta, err := json.Marshal(Metadata{
		Timestamp: now.Format(time.RFC3339),
		Version:   DocumentVersion,
	})
	if err != nil {
		return nil, err
	}
	fields[metadataKey] = meta

	return json.MarshalIndent(fields, "", "  ")
}

// ValidateName rejects names that could escape the store or are not JSON
// documents.
func ValidateName(name string) error {
	switch {
	case name == "",
		name != filepath.Base(name),
		strings.ContainsAny(name, `/\`),
		strings.HasPrefix(name, "."),
		!strings.HasSuffix(name, extension):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// CrawlFilename is the document name for a crawl of domain
func CrawlFilename(domain string) string {
	return utils.SanitizeFilename("website_" + strings.ReplaceAll(domain, ".", "_") + extension)
}

// ProfileFilename is the document name for a company profile
func ProfileFilename(companyName string) string {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(companyName)), " ", "_")
	return utils.SanitizeFilename("profile_" + name + extension)
}
