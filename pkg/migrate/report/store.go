package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const s3Scheme = "s3://"

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks YAML for .yaml/.yml destinations and JSON otherwise.
func FormatFor(dest string) Format {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func Encode(r *Report, f Format) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(r)
	}
	return json.MarshalIndent(r, "", "  ")
}

// Read loads a report previously written by Save to a filesystem path.
func Read(fs afero.Fs, path string) (*Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var r Report
	if FormatFor(path) == FormatYAML {
		err = yaml.Unmarshal(data, &r)
	} else {
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("report: could not decode %s : %w", path, err)
	}
	return &r, nil
}

// Uploader puts reports into S3, retrying failed puts.
type Uploader struct {
	S3       s3iface.S3API
	MaxRetry int
}

func NewS3Uploader(maxRetry int) (*Uploader, error) {
	sess, err := session.NewSession(aws.NewConfig())
	if err != nil {
		return nil, err
	}
	return &Uploader{S3: s3.New(sess), MaxRetry: maxRetry}, nil
}

func (u *Uploader) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	var (
		retryCtr int
		err      error
	)
	for retryCtr <= u.MaxRetry {
		_, err = u.S3.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Body:        bytes.NewReader(body),
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		})
		if err == nil {
			return nil
		}
		retryCtr++
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("Attempted uploading key (%s) %d times with no success : original_err=%w", key, retryCtr, err)
}

// SplitS3 parses s3://bucket/key.
func SplitS3(dest string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(dest, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("report: %q is not s3://bucket/key", dest)
	}
	return bucket, key, nil
}

// Save writes r to dest, either a path on fs or an s3://bucket/key location.
func Save(ctx context.Context, fs afero.Fs, up *Uploader, dest string, r *Report) error {
	f := FormatFor(dest)
	body, err := Encode(r, f)
	if err != nil {
		return fmt.Errorf("report: encode : %w", err)
	}

	if strings.HasPrefix(dest, s3Scheme) {
		if up == nil {
			return fmt.Errorf("report: no uploader configured for %s", dest)
		}
		bucket, key, err := SplitS3(dest)
		if err != nil {
			return err
		}
		contentType := "application/json"
		if f == FormatYAML {
			contentType = "application/yaml"
		}
		return up.Upload(ctx, bucket, key, body, contentType)
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, dest, body, 0o644)
}
