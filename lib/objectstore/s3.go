//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package objectstore hands out presigned S3 URLs, so clients move file
// bytes to and from the bucket without going through this server.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/lib/cache"
	"github.com/ktb3/community-go/lib/conv"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
)

// S3Funcs is the part of the S3 API that gets called directly.
type S3Funcs interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Client struct {
	S3Funcs
	Presigner

	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	downloads   *cache.Keyed[string, string]
}

// Presigned is a URL that allows one kind of request on one object until
// ExpiresAt. Header holds the headers the client must send with it.
type Presigned struct {
	URL       string
	Method    string
	Header    http.Header
	ExpiresAt time.Time
}

func NewS3Client(ctx context.Context, cfg conf.S3Objects) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("[LoadDefaultConfig]: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, s3.NewPresignClient(client), cfg), nil
}

func New(funcs S3Funcs, presigner Presigner, cfg conf.S3Objects) *Client {
	c := &Client{
		S3Funcs:     funcs,
		Presigner:   presigner,
		bucket:      cfg.Bucket,
		uploadTTL:   cfg.UploadURLLifetime,
		downloadTTL: cfg.DownloadURLLifetime,
	}
	// Reuse a download URL for half its lifetime, so nobody is handed one
	// that's about to stop working.
	c.downloads = cache.NewKeyed[string, string](cfg.DownloadURLLifetime/2, c.presignDownload)
	return c
}

// NewKey names a new object as {kind}/{owner}/{uuid}.{ext}, taking the
// extension from fileName.
func NewKey(kind string, owner int64, fileName string) string {
	key := kind + "/" + conv.FormatInt(owner) + "/" + uuid.NewString()
	if ext := strings.TrimPrefix(path.Ext(fileName), "."); ext != "" {
		key += "." + ext
	}
	return key
}

func (c *Client) PresignUpload(ctx context.Context, key, contentType string) (Presigned, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	expiresAt := time.Now().Add(c.uploadTTL)
	req, err := c.PresignPutObject(ctx, input, s3.WithPresignExpires(c.uploadTTL))
	if err != nil {
		return Presigned{}, fmt.Errorf("[PresignPutObject]: %w", err)
	}
	slog.Debug("Presigned S3 upload", "bucket", c.bucket, "key", key)
	return Presigned{
		URL:       req.URL,
		Method:    req.Method,
		Header:    req.SignedHeader,
		ExpiresAt: expiresAt,
	}, nil
}

// PresignDownload returns a GET URL for key, reusing a recent one if
// there is one.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, error) {
	url, err := c.downloads.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("[downloads.Get]: %w", err)
	}
	return *url, nil
}

func (c *Client) presignDownload(ctx context.Context, key string) (string, error) {
	req, err := c.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(c.downloadTTL),
	)
	if err != nil {
		return "", fmt.Errorf("[PresignGetObject]: %w", err)
	}
	return req.URL, nil
}

// Exists reports whether key is in the bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	_, err := c.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	slog.Debug("Checked S3 object", "key", key, "duration", time.Since(start))
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("[HeadObject]: %w", err)
}

// Forget drops any cached download URL for key.
func (c *Client) Forget(key string) {
	c.downloads.Forget(key)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
