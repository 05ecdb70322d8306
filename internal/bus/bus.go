// Package bus implements the typed, topic-based, synchronous message bus
// (spec.md §4.2, C2). Adapted from the teacher's
// internal/messaging/unified_dispatcher.go, stripped of its async
// worker-queue machinery: spec.md §5 mandates synchronous, in-process
// delivery on a single logical thread, so there is no queue to run
// workers over — publish() dispatches inline and returns once every
// matching handler has run.
package bus

import (
	"sort"
	"strings"
	"sync"

	"github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"go.uber.org/zap"
)

// Message is the type-erased envelope delivered to handlers; callers
// down-cast Payload to the concrete event/command type they expect,
// mirroring interfaces.Message in the teacher's messaging package.
type Message struct {
	Topic   string
	Payload interface{}
}

// Handler receives a dispatched Message. Handlers must not publish to
// the same topic they are currently being invoked for for (spec.md §4.2
// "handlers must not publish recursively to the same topic").
type Handler func(msg Message)

type subscription struct {
	pattern  string
	handler  Handler
	priority int
	seq      int // insertion order, tie-break (spec.md P9)
}

// Endpoint is a registered request-reply handler (spec.md §4.2
// "register(endpoint, handler) for request-reply").
type Endpoint func(request interface{}) (interface{}, error)

// Bus is the in-process pub/sub core. All methods assume single-threaded
// cooperative callers per spec.md §5, but guard their internal maps with
// a mutex since venue-adapter I/O tasks may call Publish from outside
// the core thread's exact call stack in some embeddings.
type Bus struct {
	mu       sync.Mutex
	subs     []subscription
	nextSeq  int
	endpoints map[string]Endpoint

	publishing []string // topic re-entrancy stack, spec.md §4.2 loop detection

	log *zap.Logger
}

func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		endpoints: make(map[string]Endpoint),
		log:       log,
	}
}

// Subscribe registers handler for broadcast delivery on pattern, a
// hierarchical topic possibly containing '*' (matches exactly one
// segment, or one or more segments when it is the pattern's last
// segment) and '?' (matches exactly one character within a segment).
func (b *Bus) Subscribe(pattern string, handler Handler, priority int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSeq++
	b.subs = append(b.subs, subscription{pattern: pattern, handler: handler, priority: priority, seq: b.nextSeq})
}

// Register installs a request-reply endpoint (spec.md §4.2).
func (b *Bus) Register(name string, ep Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endpoints[name] = ep
}

// Request invokes a registered endpoint synchronously.
func (b *Bus) Request(name string, req interface{}) (interface{}, error) {
	b.mu.Lock()
	ep, ok := b.endpoints[name]
	b.mu.Unlock()
	if !ok {
		return nil, errors.Newf(errors.KindNotFound, "no endpoint registered for %q", name)
	}
	return ep(req)
}

// Publish dispatches payload to every subscription whose pattern matches
// topic, in descending priority then insertion order (spec.md P9).
// Re-entrant publish to the same topic from within one of its own
// handlers fails with KindCyclicPublish (spec.md §4.2, §7).
func (b *Bus) Publish(topic string, payload interface{}) error {
	b.mu.Lock()
	for _, t := range b.publishing {
		if t == topic {
			b.mu.Unlock()
			return errors.Newf(errors.KindCyclicPublish, "re-entrant publish to topic %q", topic)
		}
	}
	b.publishing = append(b.publishing, topic)

	matched := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if matchTopic(s.pattern, topic) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority > matched[j].priority
		}
		return matched[i].seq < matched[j].seq
	})

	msg := Message{Topic: topic, Payload: payload}
	for _, s := range matched {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("bus handler panicked", zap.String("topic", topic), zap.Any("recover", r))
				}
			}()
			s.handler(msg)
		}()
	}

	b.mu.Lock()
	b.publishing = b.publishing[:len(b.publishing)-1]
	b.mu.Unlock()
	return nil
}

// matchTopic matches a hierarchical dotted topic against a pattern whose
// segments may be '*' (any one segment) or contain '?' (any one
// character within that segment), per spec.md §4.2. A trailing '*'
// matches the rest of the topic, so "events.order.*" also matches
// instrument topics whose id itself contains dots
// ("events.order.BTCUSD.SIM").
func matchTopic(pattern, topic string) bool {
	pSegs := strings.Split(pattern, ".")
	tSegs := strings.Split(topic, ".")
	if pSegs[len(pSegs)-1] == "*" && len(tSegs) > len(pSegs) {
		tSegs = tSegs[:len(pSegs)]
	}
	if len(pSegs) != len(tSegs) {
		return false
	}
	for i, p := range pSegs {
		if p == "*" {
			continue
		}
		if !matchSegment(p, tSegs[i]) {
			return false
		}
	}
	return true
}

func matchSegment(pattern, seg string) bool {
	if len(pattern) != len(seg) {
		return pattern == seg
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '?' {
			continue
		}
		if pattern[i] != seg[i] {
			return false
		}
	}
	return true
}
