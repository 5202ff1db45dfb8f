package apexText

import (
	"maps"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Codec converts Go values to and from one text format. Type codecs are
// compiled on first use and kept in an immutable snapshot that is replaced
// atomically, so lookups never lock and concurrent first use is safe.
type Codec struct {
	format Format

	// mu serializes configuration and hook changes. Cache publication does
	// not take it.
	mu    sync.Mutex
	state atomic.Pointer[snapshot]
}

// snapshot pairs the settings the codecs were compiled against with the
// codecs themselves. Neither is mutated once published.
type snapshot struct {
	set    *settings
	codecs map[reflect.Type]*typeCodec
}

// lazyCodec resolves a member's codec on first invocation. Struct, pointer and
// container codecs hold one per member type so self-referencing types compile
// without recursing.
type lazyCodec struct {
	once sync.Once
	c    *Codec
	set  *settings
	typ  reflect.Type
	tc   *typeCodec
	err  error
}

func (c *Codec) lazy(set *settings, t reflect.Type) *lazyCodec {
	return &lazyCodec{c: c, set: set, typ: t}
}

func (l *lazyCodec) get() (*typeCodec, error) {
	l.once.Do(func() {
		l.tc, l.err = l.c.codecFor(l.set, l.typ)
	})
	return l.tc, l.err
}

var (
	// JSON is the default JSON codec.
	JSON = NewJSONCodec()
	// JSV is the default JSV codec.
	JSV = NewJSVCodec()
)

// NewJSONCodec returns a JSON codec configured with opts on top of DefaultConfig.
func NewJSONCodec(opts ...Option) *Codec {
	return NewCodec(newJSONFormat(), opts...)
}

// NewJSVCodec returns a JSV codec configured with opts on top of DefaultConfig.
func NewJSVCodec(opts ...Option) *Codec {
	return NewCodec(newJSVFormat(), opts...)
}

// NewCodec returns a codec for an arbitrary Format.
func NewCodec(f Format, opts ...Option) *Codec {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Codec{format: f}
	c.state.Store(&snapshot{
		set:    newSettings(cfg, f.Name(), nil),
		codecs: map[reflect.Type]*typeCodec{},
	})
	return c
}

// Format returns the codec's format primitives.
func (c *Codec) Format() Format { return c.format }

// Config returns the configuration currently in effect.
func (c *Codec) Config() Config {
	return c.state.Load().set.cfg
}

// codecFor returns the codec for t compiled against set. A codec is only
// published when set is still current; a caller holding superseded settings
// gets a private codec that matches what it started with.
func (c *Codec) codecFor(set *settings, t reflect.Type) (*typeCodec, error) {
	snap := c.state.Load()
	if snap.set == set {
		if tc, ok := snap.codecs[t]; ok {
			return tc, nil
		}
	}

	tc, err := c.compile(set, t)
	if err != nil {
		return nil, err
	}
	set.metrics.build()

	for {
		cur := c.state.Load()
		if cur.set != set {
			return tc, nil
		}
		if winner, ok := cur.codecs[t]; ok {
			return winner, nil
		}
		next := &snapshot{set: cur.set, codecs: make(map[reflect.Type]*typeCodec, len(cur.codecs)+1)}
		maps.Copy(next.codecs, cur.codecs)
		next.codecs[t] = tc
		if c.state.CompareAndSwap(cur, next) {
			return tc, nil
		}
		set.metrics.casConflict()
	}
}

// Reset drops every compiled codec. Operations already running keep the
// codecs they hold.
func (c *Codec) Reset() {
	for {
		cur := c.state.Load()
		if c.state.CompareAndSwap(cur, &snapshot{set: cur.set, codecs: map[reflect.Type]*typeCodec{}}) {
			return
		}
	}
}

// Configure applies opts to the current configuration. Compiled codecs bake
// in key names and matching tables, so the cache is reset as well.
func (c *Codec) Configure(opts ...Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSettings(func(s *settings) *settings { return s.with(c.format.Name(), opts...) })
}

// replaceSettings publishes new settings with an empty cache. c.mu must be held.
func (c *Codec) replaceSettings(update func(*settings) *settings) {
	for {
		cur := c.state.Load()
		next := &snapshot{set: update(cur.set), codecs: map[reflect.Type]*typeCodec{}}
		if c.state.CompareAndSwap(cur, next) {
			return
		}
	}
}

// CachedTypes returns the types that currently have a published codec,
// ordered by their String form.
func (c *Codec) CachedTypes() []reflect.Type {
	snap := c.state.Load()
	types := make([]reflect.Type, 0, len(snap.codecs))
	for t := range snap.codecs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}
