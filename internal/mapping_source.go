package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/mappings"
	"go.uber.org/zap"
)

// MappingSource loads a mapping document once at startup.
type MappingSource interface {
	LoadDocument(ctx context.Context) (*MappingDocument, error)
	// Describe returns the source in URI form for logs and errors.
	Describe() string
}

// SourceKind identifies the backend of a mapping source URI.
type SourceKind string

const (
	SourceKindFile      SourceKind = "file"
	SourceKindEmbedded  SourceKind = "embedded"
	SourceKindS3        SourceKind = "s3"
	SourceKindCatalogue SourceKind = "postgres"
)

// SourceLocation is a parsed mapping source URI.
type SourceLocation struct {
	Kind SourceKind
	// Path is the file path, embedded document name, S3 key or catalogue table.
	Path   string
	Bucket string
}

// ParseMappingSourceURI splits a mapping source into its kind and location.
// A value without a scheme is a local file path.
func ParseMappingSourceURI(raw string) (SourceLocation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SourceLocation{}, legacybridge.NewUnsupportedSourceError(raw)
	}
	if !strings.Contains(raw, "://") {
		return SourceLocation{Kind: SourceKindFile, Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return SourceLocation{}, legacybridge.NewUnsupportedSourceError(raw).WithCause(err)
	}

	switch SourceKind(u.Scheme) {
	case SourceKindFile:
		path := u.Host + u.Path
		if path == "" {
			return SourceLocation{}, legacybridge.NewUnsupportedSourceError(raw)
		}
		return SourceLocation{Kind: SourceKindFile, Path: path}, nil
	case SourceKindEmbedded:
		name := u.Host + u.Path
		if name == "" {
			name = mappings.DefaultName
		}
		return SourceLocation{Kind: SourceKindEmbedded, Path: name}, nil
	case SourceKindS3:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return SourceLocation{}, legacybridge.NewUnsupportedSourceError(raw).
				WithDetail("reason", "s3 source needs s3://bucket/key")
		}
		return SourceLocation{Kind: SourceKindS3, Bucket: u.Host, Path: key}, nil
	case SourceKindCatalogue:
		table := strings.Trim(u.Host+u.Path, "/")
		if table == "" {
			return SourceLocation{}, legacybridge.NewUnsupportedSourceError(raw).
				WithDetail("reason", "catalogue source needs postgres://<table>")
		}
		return SourceLocation{Kind: SourceKindCatalogue, Path: table}, nil
	default:
		return SourceLocation{}, legacybridge.NewUnsupportedSourceError(raw)
	}
}

// FileMappingSource reads a YAML or JSON document from disk.
type FileMappingSource struct {
	Path string
}

func (s *FileMappingSource) Describe() string {
	return "file://" + s.Path
}

func (s *FileMappingSource) LoadDocument(ctx context.Context) (*MappingDocument, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, legacybridge.NewMappingNotFoundError(s.Describe(), err)
		}
		return nil, legacybridge.NewMappingSourceError(s.Describe(), err)
	}
	return parseFromSource(s, data)
}

// EmbeddedMappingSource reads a document compiled into the binary.
type EmbeddedMappingSource struct {
	Name string
}

func (s *EmbeddedMappingSource) Describe() string {
	return "embedded://" + s.Name
}

func (s *EmbeddedMappingSource) LoadDocument(ctx context.Context) (*MappingDocument, error) {
	data, err := mappings.Lookup(s.Name)
	if err != nil {
		return nil, legacybridge.NewMappingNotFoundError(s.Describe(), err)
	}
	return parseFromSource(s, data)
}

// S3ObjectGetter is the subset of the S3 API used by S3MappingSource.
type S3ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3MappingSource reads a document from an object store.
type S3MappingSource struct {
	Client S3ObjectGetter
	Bucket string
	Key    string
}

func (s *S3MappingSource) Describe() string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)
}

func (s *S3MappingSource) LoadDocument(ctx context.Context) (*MappingDocument, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, legacybridge.NewMappingNotFoundError(s.Describe(), err)
		}
		return nil, legacybridge.NewMappingSourceError(s.Describe(), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, legacybridge.NewMappingSourceError(s.Describe(), fmt.Errorf("read object body: %w", err))
	}
	return parseFromSource(s, data)
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return true
		}
	}
	return false
}

type catalogueQueryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CatalogueMappingSource reads aliases from a catalogue table in the legacy
// database with columns app_table, legacy_table, app_field, legacy_field and
// position. A row with a NULL app_field carries only the table alias.
type CatalogueMappingSource struct {
	Pool  catalogueQueryPool
	Table string
}

// NewCatalogueMappingSource creates a catalogue source over pool.
func NewCatalogueMappingSource(pool catalogueQueryPool, table string) *CatalogueMappingSource {
	return &CatalogueMappingSource{Pool: pool, Table: table}
}

func (s *CatalogueMappingSource) Describe() string {
	return "postgres://" + s.Table
}

func (s *CatalogueMappingSource) LoadDocument(ctx context.Context) (*MappingDocument, error) {
	query := fmt.Sprintf(
		`SELECT app_table, legacy_table, app_field, legacy_field
		FROM %s
		ORDER BY app_table, position`,
		sanitizeIdentifier(s.Table),
	)

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, legacybridge.NewMappingSourceError(s.Describe(), err)
	}
	defer rows.Close()

	doc := &MappingDocument{Version: CurrentMappingVersion}
	index := make(map[string]int)
	for rows.Next() {
		var (
			appTable    string
			legacyTable *string
			appField    *string
			legacyField *string
		)
		if err := rows.Scan(&appTable, &legacyTable, &appField, &legacyField); err != nil {
			return nil, legacybridge.NewMappingSourceError(s.Describe(), fmt.Errorf("scan catalogue row: %w", err))
		}

		entry := tableEntry(doc, index, appTable)
		if legacyTable != nil && *legacyTable != "" {
			entry.Table.Legacy = *legacyTable
		}
		if appField == nil || *appField == "" {
			continue
		}
		if legacyField == nil || *legacyField == "" {
			return nil, legacybridge.NewMappingInvalidError("catalogue field alias without legacy name").
				WithTable(appTable).
				WithField(*appField)
		}
		entry.Fields = append(entry.Fields, legacybridge.FieldAlias{Application: *appField, Legacy: *legacyField})
	}
	if err := rows.Err(); err != nil {
		return nil, legacybridge.NewMappingSourceError(s.Describe(), fmt.Errorf("iterate catalogue rows: %w", err))
	}

	zap.S().Debugw("loaded mapping catalogue", "source", s.Describe(), "tables", len(doc.Mappings))
	return doc, nil
}

// parseFromSource parses data and tags parse failures with the source.
func parseFromSource(source MappingSource, data []byte) (*MappingDocument, error) {
	doc, err := ParseMappingDocument(data)
	if err != nil {
		var bridgeErr *legacybridge.BridgeError
		if errors.As(err, &bridgeErr) {
			bridgeErr.WithDetail("source", source.Describe())
		}
		return nil, err
	}
	zap.S().Debugw("parsed mapping document", "source", source.Describe(), "tables", len(doc.Mappings))
	return doc, nil
}
