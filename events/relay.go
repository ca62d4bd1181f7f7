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

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/session"
	"github.com/launchdarkly/eventsource"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// SessionSSE is a session event as it's sent down an SSE stream.
type SessionSSE struct {
	ID      int64
	Session session.SessionEvent
}

func (e SessionSSE) Id() string {
	return conv.FormatInt(e.ID)
}

func (e SessionSSE) Event() string {
	return string(e.Session.Kind)
}

func (e SessionSSE) Data() string {
	b, err := json.Marshal(e.Session)
	if err != nil {
		slog.Error("Error converting session event to JSON", "event", e.Session, "err", err)
	}
	return string(b)
}

// Relay forwards session events from the bus to per-member SSE channels.
type Relay struct {
	Server    *eventsource.Server
	idCounter atomic.Int64
}

func NewRelay() *Relay {
	return &Relay{
		Server: eventsource.NewServer(),
	}
}

// Channel is the SSE channel that carries one member's events.
func Channel(id authz.MemberID) string {
	return "member-" + conv.FormatInt(id)
}

// Handler streams the member's session events.
func (r *Relay) Handler(id authz.MemberID) http.Handler {
	return r.Server.Handler(Channel(id))
}

// Start subscribes to Topic and relays in the background until ctx is done
// or the subscription closes.
func (r *Relay) Start(ctx context.Context, subscriber message.Subscriber) error {
	messages, err := subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("[Subscribe]: %w", err)
	}
	go func() {
		for msg := range messages {
			r.relay(msg)
		}
		slog.Info("Session event relay stopped")
	}()
	return nil
}

func (r *Relay) relay(msg *message.Message) {
	// Every message is acked. Redelivering one that can't be decoded
	// won't help.
	defer msg.Ack()
	var ev session.SessionEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Error("Dropping undecodable session event", "uuid", msg.UUID, "error", err)
		return
	}
	r.Server.Publish([]string{Channel(ev.MemberID)}, SessionSSE{
		ID:      r.idCounter.Add(1),
		Session: ev,
	})
}

// Close disconnects every SSE client.
func (r *Relay) Close() {
	r.Server.Close()
}
