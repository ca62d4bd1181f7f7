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

package testctr

import (
	"context"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MariaDBVersion     = "10.5.27"
	MariaDBDockerImage = "mariadb:" + MariaDBVersion
)

// MariaDBContainer runs an empty MariaDB database that username can use.
func MariaDBContainer(ctx context.Context, database, username, password string) (
	ctr testcontainers.Container,
	cleanup func(),
	port int32,
	err error,
) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        MariaDBDockerImage,
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor:   wait.ForLog("port: 3306  mariadb.org binary distribution"),
		Env: map[string]string{
			"MARIADB_RANDOM_ROOT_PASSWORD": "true",
			"MARIADB_DATABASE":             database,
			"MARIADB_USER":                 username,
			"MARIADB_PASSWORD":             password,
		},
	}, "3306/tcp")
}
