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

package conf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"github.com/ktb3/community-go/lib/redact"
	"time"
)

// DefaultCommunity is the base configuration used for the community server.
// It gets overridden by values in the .env file, then the result of that
// gets overridden by environment variables.
func DefaultCommunity() *CommunityConfig {
	return &CommunityConfig{
		Core: ConfigCore{
			Host:                 "localhost",
			Port:                 8080,
			JWTSecret:            rand.Text(),
			Deployment:           DeploymentTypeDev,
			LogLevel:             "INFO",
			AccessTokenLifetime:  15 * time.Minute,
			RefreshTokenLifetime: 14 * 24 * time.Hour,
			CacheControlLong:     2 * time.Hour,
			MaxRequestBytes:      1 << 20,
		},
		Store: DBStore{
			Type: DBStoreTypeMaria,
			MariaDB: DBStoreMaria{
				HostName:     "localhost",
				HostPort:     3306,
				Database:     "community",
				MaxOpenConns: 20,
			},
			Fake: DBStoreMaria{
				HostName: "localhost",
				// HostPort can be left as 0 for automatic port selection on startup
				HostPort:     0,
				Database:     "community_fake",
				Username:     "community_fake_user",
				Password:     rand.Text(),
				MaxOpenConns: 20,
			},
		},
		Sessions: Sessions{
			Type: SessionStoreTypeMaria,
			Redis: Redis{
				Addr:      "localhost:6379",
				KeyPrefix: "community:refresh:",
			},
		},
		Objects: ObjectStore{
			Type: ObjectStoreNone,
			S3: S3Objects{
				UploadURLLifetime:   5 * time.Minute,
				DownloadURLLifetime: time.Hour,
			},
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

// Validate should be called after a CommunityConfig has been fully configured.
func (c *CommunityConfig) Validate() error {
	var errs []error
	errs = append(errs, c.Core.Deployment.Validate())
	errs = append(errs, c.Store.Type.Validate())
	if c.Store.Type == DBStoreTypeNoOp {
		c.Store.MariaDB = DBStoreMaria{}
	}
	if c.Store.Type != DBStoreTypeFake {
		c.Store.Fake = DBStoreMaria{}
	}
	if c.Core.Deployment != DeploymentTypeDev && c.Store.Type == DBStoreTypeFake {
		errs = append(errs, errors.New("do not use the fake DB outside dev"))
	}
	errs = append(errs, c.Sessions.Type.Validate())
	if c.Sessions.Type == SessionStoreTypeRedis && c.Sessions.Redis.Addr == "" {
		errs = append(errs, errors.New("redis session store requires an Addr"))
	}
	if c.Sessions.Type == SessionStoreTypeMemory && c.Core.Deployment != DeploymentTypeDev {
		errs = append(errs, errors.New("the memory session store loses every session on restart and is for dev only"))
	}
	errs = append(errs, c.Objects.Type.Validate())
	if c.Objects.Type == ObjectStoreS3 {
		s3 := c.Objects.S3
		if s3.AWSRegion == "" || s3.Bucket == "" {
			errs = append(errs, errors.New("s3 object store requires a Region and Bucket"))
		}
		if s3.UploadURLLifetime <= 0 || s3.DownloadURLLifetime <= 0 {
			errs = append(errs, errors.New("presigned URL lifetimes must be positive"))
		}
	}
	if c.Core.JWTSecret == "" {
		errs = append(errs, errors.New("a JWT secret is required"))
	}
	if c.Core.AccessTokenLifetime <= 0 || c.Core.RefreshTokenLifetime <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.Core.AccessTokenLifetime > c.Core.RefreshTokenLifetime {
		errs = append(errs, errors.New("access token lifetime should not be greater than refresh token lifetime"))
	}
	return errors.Join(errs...)
}

func (c *CommunityConfig) PrintRedacted() string {
	return c.String()
}

func (c *CommunityConfig) String() string {
	b, err := redact.ToBytes(c)
	if err != nil {
		return fmt.Sprintf("failed to print config: %v", err)
	}
	return string(b)
}

type CommunityConfig struct {
	Core     ConfigCore
	Store    DBStore
	Sessions Sessions
	Objects  ObjectStore
	Metrics  Metrics
}

type DeploymentType string

type DBStoreType string

type SessionStoreType string

type ObjectStoreType string

const (
	DeploymentTypeDev        DeploymentType   = "dev"
	DeploymentTypeStaging    DeploymentType   = "staging"
	DeploymentTypeProduction DeploymentType   = "production"
	DBStoreTypeMaria         DBStoreType      = "mariadb"
	DBStoreTypeNoOp          DBStoreType      = "noop"
	DBStoreTypeFake          DBStoreType      = "fake"
	SessionStoreTypeMaria    SessionStoreType = "mariadb"
	SessionStoreTypeRedis    SessionStoreType = "redis"
	SessionStoreTypeMemory   SessionStoreType = "memory"
	ObjectStoreS3            ObjectStoreType  = "s3"
	ObjectStoreNone          ObjectStoreType  = "none"
)

func (d DBStoreType) Validate() error {
	switch d {
	case DBStoreTypeMaria, DBStoreTypeNoOp, DBStoreTypeFake:
		return nil
	default:
		return fmt.Errorf("unknown DB store type %v", d)
	}
}

func (s SessionStoreType) Validate() error {
	switch s {
	case SessionStoreTypeMaria, SessionStoreTypeRedis, SessionStoreTypeMemory:
		return nil
	default:
		return fmt.Errorf("unknown session store type %v", s)
	}
}

func (o ObjectStoreType) Validate() error {
	switch o {
	case ObjectStoreS3, ObjectStoreNone:
		return nil
	default:
		return fmt.Errorf("unknown object store type %v", o)
	}
}

func (d DeploymentType) Validate() error {
	switch d {
	case DeploymentTypeDev, DeploymentTypeStaging, DeploymentTypeProduction:
		return nil
	default:
		return fmt.Errorf("unknown deployment type %v", d)
	}
}

type ConfigCore struct {
	Host                 string
	Port                 int32
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
	JWTSecret            string `redact:"true"`
	Deployment           DeploymentType

	// CacheControlLong is the duration we set in Cache-Control headers for
	// resources that won't change unless the server is redeployed, e.g. the
	// terms and privacy pages.
	CacheControlLong time.Duration

	// LogLevel should be one of DEBUG, INFO, WARN, or ERROR
	LogLevel string

	// MaxRequestBytes is a hard limit on request sizes that will be permitted by the API server.
	MaxRequestBytes int64
}

type DBStore struct {
	Type    DBStoreType
	MariaDB DBStoreMaria
	Fake    DBStoreMaria
}

type DBStoreMaria struct {
	HostName     string
	HostPort     int32
	Database     string
	Username     string
	Password     string `redact:"true"`
	MaxOpenConns int32
}

// Sessions says where refresh tokens are kept.
type Sessions struct {
	Type  SessionStoreType
	Redis Redis
}

type Redis struct {
	Addr      string
	Password  string `redact:"true"`
	DB        int
	KeyPrefix string
}

type ObjectStore struct {
	Type ObjectStoreType
	S3   S3Objects
}

type S3Objects struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string `redact:"true"`
	AWSRegion          string
	Bucket             string
	// Endpoint is optional, e.g. for a MinIO or LocalStack server.
	Endpoint            string
	UploadURLLifetime   time.Duration
	DownloadURLLifetime time.Duration
}

type Metrics struct {
	Enabled bool
}
