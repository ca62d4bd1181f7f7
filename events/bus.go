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

// Package events carries session events from the session layer to the
// members they concern. Events go out on a watermill topic, and a Relay
// forwards them to each member's Server-Sent Events stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/session"
	"log/slog"
)

const (
	Topic = "community.session"

	memberMetadataKey = "member"
	outputBuffer      = 256
)

// NewPubSub is an in-process watermill Publisher and Subscriber.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: outputBuffer},
		watermill.NewSlogLogger(slog.Default()),
	)
}

// Bus is a session.Notifier that publishes to Topic.
type Bus struct {
	publisher message.Publisher
	topic     string
}

func NewBus(publisher message.Publisher) *Bus {
	return &Bus{publisher: publisher, topic: Topic}
}

var _ session.Notifier = (*Bus)(nil)

// SessionChanged publishes ev. A failure is logged and otherwise ignored,
// because the session change itself has already happened.
func (b *Bus) SessionChanged(ctx context.Context, ev session.SessionEvent) {
	if err := b.publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish session event", "kind", ev.Kind, "member", ev.MemberID, "error", err)
	}
}

func (b *Bus) publish(ctx context.Context, ev session.SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("[json.Marshal]: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(memberMetadataKey, conv.FormatInt(ev.MemberID))
	msg.SetContext(ctx)
	if err = b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("[Publish]: %w", err)
	}
	return nil
}
