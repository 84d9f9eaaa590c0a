// Package activitymap flattens auth activity events into actor/verb/object
// records that audit pipelines can index without knowing auth types.
package activitymap

import (
	"strconv"
	"strings"
	"time"

	auth "github.com/goliatone/go-authgate"
)

// MetadataKeyRole holds the role carried by the event, if any. A role already
// present in the event metadata wins.
const MetadataKeyRole = "role"

// Normalized is the flattened record.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes a Mapper.
type Option func(*Mapper)

// Mapper turns events into Normalized records. The zero value is not usable,
// build one with NewMapper.
type Mapper struct {
	channel       string
	objectType    string
	actorFallback string
	objectID      func(auth.ActivityEvent) string
	now           func() time.Time
}

// NewMapper returns a Mapper with channel "auth", object type "user" and
// actor "anonymous" for events without a subject.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{
		channel:       "auth",
		objectType:    "user",
		actorFallback: "anonymous",
		objectID:      registryID,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Normalize is shorthand for NewMapper(opts...).Map(event).
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	return NewMapper(opts...).Map(event)
}

// Map flattens event. The source metadata map is never modified.
func (m *Mapper) Map(event auth.ActivityEvent) Normalized {
	out := Normalized{
		ActorID:    m.actorFallback,
		Verb:       string(event.EventType),
		ObjectType: m.objectType,
		ObjectID:   strings.TrimSpace(m.objectID(event)),
		Channel:    m.channel,
		Metadata:   withRole(event.Metadata, event.Role),
		OccurredAt: event.OccurredAt,
	}
	if subject := strings.TrimSpace(event.Subject); subject != "" {
		out.ActorID = subject
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = m.now()
	}
	return out
}

// WithDefaultChannel sets the channel stamped on every record.
func WithDefaultChannel(channel string) Option {
	return func(m *Mapper) { m.channel = strings.TrimSpace(channel) }
}

// WithDefaultObjectType sets the object type stamped on every record.
func WithDefaultObjectType(objectType string) Option {
	return func(m *Mapper) { m.objectType = strings.TrimSpace(objectType) }
}

// WithObjectIDResolver replaces the registry-id lookup, e.g. to key access
// denials by request path.
func WithObjectIDResolver(resolver func(auth.ActivityEvent) string) Option {
	return func(m *Mapper) {
		if resolver != nil {
			m.objectID = resolver
		}
	}
}

// WithActorFallback sets the actor used when the event has no subject, as
// with a request that carried no usable token.
func WithActorFallback(actorID string) Option {
	return func(m *Mapper) { m.actorFallback = strings.TrimSpace(actorID) }
}

func registryID(event auth.ActivityEvent) string {
	if event.UserID == 0 {
		return ""
	}
	return strconv.Itoa(event.UserID)
}

func withRole(src map[string]any, role auth.Role) map[string]any {
	size := len(src)
	if role != "" {
		size++
	}
	if size == 0 {
		return nil
	}

	out := make(map[string]any, size)
	for k, v := range src {
		out[k] = v
	}
	if _, ok := out[MetadataKeyRole]; !ok && role != "" {
		out[MetadataKeyRole] = string(role)
	}
	return out
}
