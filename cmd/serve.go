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
	"context"
	"fmt"
	"github.com/ktb3/community-go/api"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/directory"
	"github.com/ktb3/community-go/events"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/log"
	"github.com/ktb3/community-go/lib/objectstore"
	"github.com/ktb3/community-go/session"
	"github.com/ktb3/community-go/store"
	"github.com/ktb3/community-go/store/communitydb"
	"github.com/ktb3/community-go/store/memstore"
	"github.com/ktb3/community-go/store/redisstore"
	"github.com/ktb3/community-go/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envfileFlagName    = "envfile"
	envFileDefaultName = ".env"

	printConfigFlagName = "print-config"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the community server",
	Long: "Launch the community server\n\n" +
		"Configuration will be read from the .env file, and can be overridden by environment variables.",
	Run: runServer,
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := mustApplyEnvConfig(conf.DefaultCommunity(), envFilename)
	os.Exit(runServerInternal(context.Background(), cfg, printConfig, make(chan string, 1)))
}

// runServerInternal starts the community server and blocks until it is terminated.
//
// The supplied channel will be provided with the address of the server at the time when
// the server is started and ready to accept connections.
func runServerInternal(
	ctx context.Context, unvalidatedCfg *conf.CommunityConfig,
	printConfig bool, listeningAddr chan<- string,
) (exitCode int) {
	must(unvalidatedCfg.Validate())
	cfg := unvalidatedCfg

	configureLogger(cfg)

	if printConfig {
		stderrPrintf("Here's the final redacted CommunityConfig:\n\n%v\n\n", cfg.PrintRedacted())
		stderrPrintf("With JWTSecret: %v...%v\n", cfg.Core.JWTSecret[:1], cfg.Core.JWTSecret[len(cfg.Core.JWTSecret)-1:])
	}

	db, err := store.SqlDB(ctx, cfg.Store, true)
	must(err)
	dbq := store.NewDBQ(db, communitydb.New())

	refreshStore, closeRefreshStore := mustRefreshStore(ctx, cfg.Sessions, dbq)

	var objects *objectstore.Client
	// A nil *objectstore.Client must not end up inside the interface
	var dirObjects directory.Objects
	if cfg.Objects.Type == conf.ObjectStoreS3 {
		objects, err = objectstore.NewS3Client(ctx, cfg.Objects.S3)
		must(err)
		dirObjects = objects
	}
	dir := directory.New(store.NewMembers(dbq), dirObjects)

	codec := authz.NewCodec(cfg.Core.JWTSecret)
	issuer := session.NewIssuer(codec, refreshStore, cfg.Core.AccessTokenLifetime, cfg.Core.RefreshTokenLifetime)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pubSub := events.NewPubSub()
	relay := events.NewRelay()
	must(relay.Start(ctx, pubSub))

	sessions := session.NewService(codec, issuer, dir, dir, dir).
		WithNotifier(events.NewBus(pubSub)).
		WithMetrics(session.NewMetrics(reg))

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	mux := http.NewServeMux()
	web.AddToMux(mux, cfg)
	handler := api.AddToMux(mux, cfg, api.Services{
		Codec:     codec,
		Sessions:  sessions,
		Directory: dir,
		Objects:   objects,
		Relay:     relay,
		Gatherer:  reg,
	})

	s := &http.Server{
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// This needs to be long to support long-lived EventSource calls.
		// After this duration, a client will be disconnected and forced
		// to reconnect.
		WriteTimeout:   30 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	s.RegisterOnShutdown(func() {
		relay.Close()
		_ = pubSub.Close()
		closeRefreshStore()
	})

	addr := fmt.Sprintf("%v:%v", cfg.Core.Host, cfg.Core.Port)
	listener, err := net.Listen("tcp", addr)
	must(err)
	addr = fmt.Sprintf("%v:%v", cfg.Core.Host, listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := s.Serve(listener)
		slog.Error("Serve", "err", err)
	}()

	slog.Info("Community server is ready for connections", "addr", addr, "sessionStore", cfg.Sessions.Type)

	listeningAddr <- addr
	close(listeningAddr)
	// The goroutine will hang here until the NotifyContext is done
	<-notifyCtx.Done()
	stop()
	slog.Error("Shutting down gracefully, press Ctrl+C again to force")

	// Tell the server to shut down, giving it this much time to do so gracefully.
	// Don't parent this ctx on the notifyCtx, because it's already done.
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = s.Shutdown(timeoutCtx)
	slog.Error("Server shut down", "err", err)
	cancel()
	return 69
}

// mustRefreshStore picks where refresh records live. The returned func
// releases whatever the store holds open.
func mustRefreshStore(ctx context.Context, cfg conf.Sessions, dbq *store.DBQ) (session.RefreshStore, func()) {
	switch cfg.Type {
	case conf.SessionStoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		must(client.Ping(ctx).Err())
		return redisstore.NewRefreshTokens(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }
	case conf.SessionStoreTypeMemory:
		slog.Warn("Refresh tokens are kept in memory. Every session ends when the server stops")
		return memstore.NewRefreshTokens(), func() {}
	default:
		return store.NewRefreshTokens(dbq), func() {}
	}
}

func configureLogger(cfg *conf.CommunityConfig) {
	var logLevel slog.Level
	must(logLevel.UnmarshalText([]byte(cfg.Core.LogLevel)))
	logger := slog.New(
		log.NewHandler(
			&slog.HandlerOptions{Level: logLevel},
		),
	)
	slog.SetDefault(logger)
}

var (
	envFilename string
	printConfig bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&envFilename, envfileFlagName, envFileDefaultName,
		"An env file from which to load community server configuration. "+
			"Defaults to '.env' in the current directory")
	serveCmd.Flags().BoolVar(&printConfig, printConfigFlagName, true,
		"Whether to print the redacted CommunityConfig on server startup")
}

// must logs an error and panics. This should only be done for
// startup errors, not after the server is up and running.
func must(err error) {
	if err != nil {
		panic("got a startup error: " + err.Error())
	}
}

func stderrPrintf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
