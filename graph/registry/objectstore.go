package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStoreConfig configures an S3-compatible registry backend.
type ObjectStoreConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	Prefix       string
	UsePathStyle bool
}

// ObjectStorage is an S3-backed Storage. Per entity it keeps a
// pointer key ("{kind}/{id}/spec.json", the latest version's spec), a
// per-version key ("{kind}/{id}/versions/{v}/spec.json"), and a
// metadata key ("{kind}/{id}/metadata.json") listing known versions
// and the latest version string — the object-store key layout named
// for the registry's HTTP-facing sibling. Writes are plain puts with no
// conditional (If-Match) check; the per-entity in-process mutex in
// Registry is what prevents lost updates from this same process.
type ObjectStorage struct {
	client *s3.Client
	bucket string
	prefix string
}

type objectMetadata struct {
	ID            string   `json:"tool_id"`
	LatestVersion string   `json:"latest_version"`
	Versions      []string `json:"versions"`
	UpdatedAt     string   `json:"updated_at"`
}

// NewObjectStorage constructs an ObjectStorage client, loading AWS
// credentials the default way (environment, shared config, IMDS).
func NewObjectStorage(ctx context.Context, cfg ObjectStoreConfig) (*ObjectStorage, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("registry: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("registry: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &ObjectStorage{client: client, bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *ObjectStorage) key(parts ...string) string {
	all := append([]string{s.prefix}, parts...)
	return path.Join(all...)
}

func (s *ObjectStorage) metadataKey(kind EntityKind, id string) string {
	return s.key(string(kind), id, "metadata.json")
}

func (s *ObjectStorage) versionKey(kind EntityKind, id, version string) string {
	return s.key(string(kind), id, "versions", version, "spec.json")
}

func (s *ObjectStorage) latestKey(kind EntityKind, id string) string {
	return s.key(string(kind), id, "spec.json")
}

func (s *ObjectStorage) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: s3 get %s: %v", ErrBackendUnavailable, key, err)
	}
	defer func() { _ = out.Body.Close() }()
	return io.ReadAll(out.Body)
}

func (s *ObjectStorage) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 put %s: %v", ErrBackendUnavailable, key, err)
	}
	return nil
}

// Load reassembles an Entry from the metadata key's version list plus
// each version's own object, matching the same multi-file layout the
// HTTP-facing registry API documents for object-store backends.
func (s *ObjectStorage) Load(ctx context.Context, kind EntityKind, id string) (*Entry, error) {
	raw, err := s.getObject(ctx, s.metadataKey(kind, id))
	if err != nil {
		return nil, err
	}
	var meta objectMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("registry: corrupt metadata for %s/%s: %w", kind, id, err)
	}

	entry := newEntry(id)
	for _, v := range meta.Versions {
		vraw, err := s.getObject(ctx, s.versionKey(kind, id, v))
		if err != nil {
			continue
		}
		var rec VersionRecord
		if err := json.Unmarshal(vraw, &rec); err != nil {
			continue
		}
		entry.Versions[v] = rec
	}
	return entry, nil
}

// Store writes every version object, the latest-pointer object, and
// the metadata index. Not a single atomic operation across all three
// keys — the registry-level per-entity mutex is what keeps this
// process's own writes ordered; cross-process contention is left to
// the backend's native versioning if enabled, per spec.md's object-
// store immutability note.
func (s *ObjectStorage) Store(ctx context.Context, kind EntityKind, entry *Entry) error {
	versions := make([]string, 0, len(entry.Versions))
	var latest string
	var latestRec VersionRecord
	for v, rec := range entry.Versions {
		versions = append(versions, v)
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("registry: marshal version record: %w", err)
		}
		if err := s.putObject(ctx, s.versionKey(kind, entry.ID, v), raw); err != nil {
			return err
		}
		if latest == "" || rec.CreatedAt.After(latestRec.CreatedAt) {
			latest = v
			latestRec = rec
		}
	}

	if latest != "" {
		latestRaw, err := json.Marshal(latestRec)
		if err != nil {
			return fmt.Errorf("registry: marshal latest version record: %w", err)
		}
		if err := s.putObject(ctx, s.latestKey(kind, entry.ID), latestRaw); err != nil {
			return err
		}
	}

	meta := objectMetadata{ID: entry.ID, LatestVersion: latest, Versions: versions}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("registry: marshal metadata: %w", err)
	}
	return s.putObject(ctx, s.metadataKey(kind, entry.ID), metaRaw)
}

func (s *ObjectStorage) Delete(ctx context.Context, kind EntityKind, id string) error {
	raw, err := s.getObject(ctx, s.metadataKey(kind, id))
	if err != nil {
		return err
	}
	var meta objectMetadata
	if err := json.Unmarshal(raw, &meta); err == nil {
		for _, v := range meta.Versions {
			_, _ = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: &s.bucket, Key: aws.String(s.versionKey(kind, id, v)),
			})
		}
	}
	_, _ = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: aws.String(s.latestKey(kind, id))})
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: aws.String(s.metadataKey(kind, id))})
	if err != nil {
		return fmt.Errorf("%w: s3 delete metadata for %s/%s: %v", ErrBackendUnavailable, kind, id, err)
	}
	return nil
}

// List enumerates every "{kind}/{id}/metadata.json" key under the
// configured prefix.
func (s *ObjectStorage) List(ctx context.Context, kind EntityKind) ([]string, error) {
	prefix := s.key(string(kind)) + "/"
	var ids []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: s3 list %s: %v", ErrBackendUnavailable, prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, "/metadata.json") {
				continue
			}
			rel := strings.TrimPrefix(strings.TrimSuffix(*obj.Key, "/metadata.json"), prefix)
			if rel != "" {
				ids = append(ids, rel)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return ids, nil
}
