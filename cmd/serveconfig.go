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

package cmd

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/lib/conv"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// mustApplyEnvConfig reads in the .env file and ENV variables and applies those to baseCfg.
func mustApplyEnvConfig(baseCfg *conf.CommunityConfig, envFileName string) *conf.CommunityConfig {
	err := godotenv.Load(envFileName)

	if err != nil && !os.IsNotExist(err) {
		must(err)
	}
	if os.IsNotExist(err) {
		// if it's not the default
		if envFileName != envFileDefaultName {
			must(fmt.Errorf("envfile '%v' was set by the caller, but the file was not found", envFileName))
		}
		slog.Info("No .env file found. Carrying on with CommunityConfig defaults and environment variable overrides")
	}

	if v, ok := lookupEnv("COMMUNITY_HOSTNAME"); ok {
		baseCfg.Core.Host = v
	}
	if v, ok := lookupEnv("COMMUNITY_PORT"); ok {
		baseCfg.Core.Port, err = conv.ParseInt32(v)
		must(err)
	}
	if v, ok := lookupEnv("COMMUNITY_DEPLOYMENT"); ok {
		baseCfg.Core.Deployment = conf.DeploymentType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("COMMUNITY_REFRESH_TOKEN_LIFETIME"); ok {
		seconds, err := conv.ParseInt64(v)
		must(err)
		baseCfg.Core.RefreshTokenLifetime = time.Duration(seconds) * time.Second
	}
	if v, ok := lookupEnv("COMMUNITY_ACCESS_TOKEN_LIFETIME"); ok {
		seconds, err := conv.ParseInt64(v)
		must(err)
		baseCfg.Core.AccessTokenLifetime = time.Duration(seconds) * time.Second
	}
	if v, ok := lookupEnv("COMMUNITY_CACHE_CONTROL_LONG"); ok {
		// These values must be given with a time unit in the env variable,
		// e.g. "20s" or "5m10s". ParseDuration will fail here if the value
		// is just a nonzero number.
		dur, err := time.ParseDuration(v)
		must(err)
		baseCfg.Core.CacheControlLong = dur
	}
	if v, ok := lookupEnv("COMMUNITY_MAX_REQUEST_BYTES"); ok {
		baseCfg.Core.MaxRequestBytes, err = conv.ParseInt64(v)
		must(err)
	}
	if v, ok := lookupEnv("COMMUNITY_LOG_LEVEL"); ok {
		baseCfg.Core.LogLevel = v
	}
	if v, ok := lookupEnv("COMMUNITY_JWT_SECRET"); ok {
		baseCfg.Core.JWTSecret = v
	}
	if v, ok := lookupEnv("COMMUNITY_DB_STORE_TYPE"); ok {
		baseCfg.Store.Type = conf.DBStoreType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("COMMUNITY_DB_HOST_NAME"); ok {
		baseCfg.Store.MariaDB.HostName = v
	}
	if v, ok := lookupEnv("COMMUNITY_DB_HOST_PORT"); ok {
		baseCfg.Store.MariaDB.HostPort, err = conv.ParseInt32(v)
		must(err)
	}
	if v, ok := lookupEnv("COMMUNITY_DB_DATABASE"); ok {
		baseCfg.Store.MariaDB.Database = v
	}
	if v, ok := lookupEnv("COMMUNITY_DB_USER_NAME"); ok {
		baseCfg.Store.MariaDB.Username = v
	}
	if v, ok := lookupEnv("COMMUNITY_DB_PASSWORD"); ok {
		baseCfg.Store.MariaDB.Password = v
	}
	if v, ok := lookupEnv("COMMUNITY_DB_MAX_OPEN_CONNS"); ok {
		baseCfg.Store.MariaDB.MaxOpenConns, err = conv.ParseInt32(v)
		must(err)
	}
	if v, ok := lookupEnv("COMMUNITY_SESSION_STORE"); ok {
		baseCfg.Sessions.Type = conf.SessionStoreType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("COMMUNITY_REDIS_ADDR"); ok {
		baseCfg.Sessions.Redis.Addr = v
	}
	if v, ok := lookupEnv("COMMUNITY_REDIS_PASSWORD"); ok {
		baseCfg.Sessions.Redis.Password = v
	}
	if v, ok := lookupEnv("COMMUNITY_REDIS_DB"); ok {
		baseCfg.Sessions.Redis.DB, err = strconv.Atoi(v)
		must(err)
	}
	if v, ok := lookupEnv("COMMUNITY_REDIS_KEY_PREFIX"); ok {
		baseCfg.Sessions.Redis.KeyPrefix = v
	}
	if v, ok := lookupEnv("COMMUNITY_OBJECT_STORE"); ok {
		baseCfg.Objects.Type = conf.ObjectStoreType(strings.ToLower(v))
	}
	// These three AWS env vars use the standard names, hence no "COMMUNITY_" prefix.
	if v, ok := lookupEnv("AWS_ACCESS_KEY_ID"); ok {
		baseCfg.Objects.S3.AWSAccessKeyID = v
	}
	if v, ok := lookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
		baseCfg.Objects.S3.AWSSecretAccessKey = v
	}
	if v, ok := lookupEnv("AWS_REGION"); ok {
		baseCfg.Objects.S3.AWSRegion = v
	}
	if v, ok := lookupEnv("COMMUNITY_S3_BUCKET"); ok {
		baseCfg.Objects.S3.Bucket = v
	}
	if v, ok := lookupEnv("COMMUNITY_S3_ENDPOINT"); ok {
		baseCfg.Objects.S3.Endpoint = v
	}
	if v, ok := lookupEnv("COMMUNITY_S3_UPLOAD_URL_LIFETIME"); ok {
		dur, err := time.ParseDuration(v)
		must(err)
		baseCfg.Objects.S3.UploadURLLifetime = dur
	}
	if v, ok := lookupEnv("COMMUNITY_S3_DOWNLOAD_URL_LIFETIME"); ok {
		dur, err := time.ParseDuration(v)
		must(err)
		baseCfg.Objects.S3.DownloadURLLifetime = dur
	}
	if v, ok := lookupEnv("COMMUNITY_METRICS_ENABLED"); ok {
		baseCfg.Metrics.Enabled = strings.EqualFold(v, "true")
	}

	return baseCfg
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	// When doing `docker run --env-file .env`, Docker passes in vars without removing
	// the double-quotes, e.g. COMMUNITY_HOSTNAME="localhost" would actually get passed into
	// the program with the double-quotes in place.
	// https://github.com/docker/cli/issues/3630
	if strings.HasPrefix(v, "\"") && strings.HasSuffix(v, "\"") {
		v = v[1 : len(v)-1]
	}
	return v, true
}
