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

// Package testctr starts the backing services of the community server in
// Docker for integration tests.
package testctr

import (
	"context"
	"errors"
	"fmt"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"log/slog"
)

// start runs req and returns the host port mapped to exposedPort.
//
// If there is an error on startup, the container is terminated before returning.
// Otherwise the caller must be sure to defer cleanup, e.g. by `t.Cleanup(cleanup)`.
func start(ctx context.Context, req testcontainers.ContainerRequest, exposedPort string) (
	ctr testcontainers.Container,
	cleanup func(),
	port int32,
	err error,
) {
	ctr, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	cleanup = func() {
		if ctr == nil {
			return
		}
		if err := ctr.Terminate(ctx); err != nil {
			slog.Error("Failed to terminate container", "image", req.Image, "error", err)
		}
	}
	if err != nil {
		cleanup()
		return ctr, func() {}, 0, fmt.Errorf("[GenericContainer] %v: %w", req.Image, err)
	}
	natPort, err := ctr.MappedPort(ctx, nat.Port(exposedPort))
	if err != nil {
		cleanup()
		return ctr, func() {}, 0, errors.Join(fmt.Errorf("[MappedPort] %v", exposedPort), err)
	}
	return ctr, cleanup, int32(natPort.Int()), nil
}
