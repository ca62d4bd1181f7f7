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

// Package fake has an S3Funcs that keeps object metadata in memory.
package fake

import (
	"context"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ktb3/community-go/lib/objectstore"
	"sync"
)

type S3Funcs struct {
	mu      sync.Mutex
	objects map[BucketAndKey]int64
}

type BucketAndKey struct {
	Bucket string
	Key    string
}

func NewS3Funcs() *S3Funcs {
	return &S3Funcs{
		objects: make(map[BucketAndKey]int64),
	}
}

// Put pretends that a client uploaded size bytes to bucket/key.
func (s *S3Funcs) Put(bucket, key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[BucketAndKey{bucket, key}] = size
}

func (s *S3Funcs) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.objects[BucketAndKey{*params.Bucket, *params.Key}]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(size)}, nil
}

// force the fake to implement the interface.
var _ objectstore.S3Funcs = (*S3Funcs)(nil)
