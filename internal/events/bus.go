// Package events publishes frame lifecycle events on an in-process
// watermill pub/sub, so observers (the CLI summary, tests, future exporters)
// can follow a run without the frame driver knowing about them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/specialistvlad/framesched/internal/ctxlog"
)

const (
	TopicFrameStarted  = "frame.started"
	TopicFrameFinished = "frame.finished"
)

// FrameEvent describes one frame at its start or end. Fields that only make
// sense at the end are zero on frame.started.
type FrameEvent struct {
	RunID     string    `json:"run_id"`
	Frame     int       `json:"frame"`
	Tasks     int       `json:"tasks"`
	Instances int64     `json:"instances,omitempty"`
	Duration  Duration  `json:"duration,omitempty"`
	Failed    []string  `json:"failed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Duration is a time.Duration encoded as a string like "1.5ms".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Bus is a frame event bus backed by a watermill GoChannel.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus that logs through the logger carried by ctx.
//
// Publishing blocks until every subscriber has received the message, which
// keeps events of one topic in publish order. Subscribers must keep draining
// their channel.
func NewBus(ctx context.Context) *Bus {
	logger := watermill.NewSlogLogger(ctxlog.FromContext(ctx))
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            16,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: true,
			},
			logger,
		),
	}
}

// Publish sends ev on topic. Events published while nobody is subscribed
// are dropped.
func (b *Bus) Publish(ctx context.Context, topic string, ev FrameEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", topic)
	msg.Metadata.Set("run_id", ev.RunID)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of decoded events on topic. The channel is
// closed when ctx is done or the bus is closed. Messages that do not decode
// are logged and dropped.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan FrameEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	logger := ctxlog.FromContext(ctx)
	out := make(chan FrameEvent, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev FrameEvent
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				logger.Warn("Dropping undecodable frame event.", "topic", topic, "messageID", msg.UUID, "error", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and closes every subscription channel.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
