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

const RedisDockerImage = "redis:7.4-alpine"

// RedisContainer runs a Redis server that requires password.
func RedisContainer(ctx context.Context, password string) (
	ctr testcontainers.Container,
	cleanup func(),
	port int32,
	err error,
) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        RedisDockerImage,
		ExposedPorts: []string{"6379/tcp"},
		Cmd:          []string{"redis-server", "--requirepass", password},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379/tcp")
}
