package stat

import "log/slog"

// Registry owns one Stat per Kind and re-broadcasts every stat's changes
// as a single stream.
//
// Get never returns nil: the first reference to a kind materializes a Stat
// with scalar 0. The registry's current events/auto-recompute policy is
// applied to stats created later, so a toggle issued before a kind is first
// touched still governs it.
//
// Registry is not safe for concurrent use; see tick.Loop for a goroutine
// owner that serializes access.
type Registry struct {
	stats [kindCount]*Stat

	eventsEnabled bool
	autoRecompute bool

	listeners listenerList
	logger    *slog.Logger
}

// Option configures a Registry at construction.
type Option func(*registryOptions)

type registryOptions struct {
	eager         bool
	kinds         []Kind
	eventsEnabled bool
	autoRecompute bool
	logger        *slog.Logger
}

// WithEagerInit materializes every kind at construction.
func WithEagerInit() Option {
	return func(o *registryOptions) { o.eager = true }
}

// WithKinds materializes only the given kinds at construction. An empty
// list initializes nothing; other kinds are still created lazily by Get.
func WithKinds(kinds ...Kind) Option {
	return func(o *registryOptions) { o.kinds = append(o.kinds, kinds...) }
}

// WithEventsEnabled sets the initial event policy (default true).
func WithEventsEnabled(enabled bool) Option {
	return func(o *registryOptions) { o.eventsEnabled = enabled }
}

// WithAutoRecompute sets the initial recompute-on-mutation policy (default true).
func WithAutoRecompute(enabled bool) Option {
	return func(o *registryOptions) { o.autoRecompute = enabled }
}

// WithLogger sets the diagnostics logger. Logging never affects values.
func WithLogger(logger *slog.Logger) Option {
	return func(o *registryOptions) { o.logger = logger }
}

// NewRegistry creates a registry. Without WithEagerInit or WithKinds no stat
// is created up front.
func NewRegistry(opts ...Option) *Registry {
	o := registryOptions{eventsEnabled: true, autoRecompute: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Registry{
		eventsEnabled: o.eventsEnabled,
		autoRecompute: o.autoRecompute,
		logger:        logger,
	}

	if o.eager {
		for k := range kindCount {
			r.materialize(k)
		}
	} else {
		for _, k := range o.kinds {
			if !k.Valid() {
				logger.Warn("skipping invalid stat kind in initial set", "kind", k)
				continue
			}
			if r.stats[k] == nil {
				r.materialize(k)
			}
		}
	}

	logger.Debug("stat registry created", "eager", o.eager, "initialized", len(r.Owned()))
	return r
}

func (r *Registry) materialize(k Kind) *Stat {
	s := NewStat(k)
	s.eventsEnabled = r.eventsEnabled
	s.autoRecompute = r.autoRecompute
	s.Subscribe(r.listeners.emit)
	r.stats[k] = s
	return s
}

// Get returns the Stat for k, creating it with scalar 0 on first use.
// k must be a declared Kind; names from outside go through ParseKind.
func (r *Registry) Get(k Kind) *Stat {
	if s := r.stats[k]; s != nil {
		return s
	}
	s := r.materialize(k)
	r.logger.Debug("stat materialized lazily", "kind", k)
	return s
}

// Has reports whether k has been materialized.
func (r *Registry) Has(k Kind) bool {
	return k.Valid() && r.stats[k] != nil
}

// Owned returns materialized kinds in declaration order.
func (r *Registry) Owned() []Kind {
	out := make([]Kind, 0, kindCount)
	for k, s := range r.stats {
		if s != nil {
			out = append(out, Kind(k))
		}
	}
	return out
}

func (r *Registry) TotalValue(k Kind) float64 { return r.Get(k).TotalValue() }
func (r *Registry) BaseValue(k Kind) float64  { return r.Get(k).BaseValue() }
func (r *Registry) BonusValue(k Kind) float64 { return r.Get(k).BonusValue() }

func (r *Registry) SetBaseScalar(k Kind, v float64) { r.Get(k).SetBaseScalar(v) }

// AddModifier inserts m into stat k. See Stat.AddModifier.
func (r *Registry) AddModifier(k Kind, m *Modifier) Handle { return r.Get(k).AddModifier(m) }

// RemoveModifier revokes an insertion made through AddModifier on the same kind.
func (r *Registry) RemoveModifier(k Kind, h Handle) bool {
	removed := r.Get(k).RemoveModifier(h)
	if !removed && h.Valid() {
		r.logger.Debug("modifier handle not present", "kind", k)
	}
	return removed
}

// ClearModifiers empties every cell of stat k.
func (r *Registry) ClearModifiers(k Kind) { r.Get(k).ClearAllModifiers() }

// ClearAllModifiers empties every cell of every owned stat.
func (r *Registry) ClearAllModifiers() {
	for _, s := range r.stats {
		if s != nil {
			s.ClearAllModifiers()
		}
	}
}

// SetEventsEnabled applies the toggle to every owned stat and to every stat
// materialized afterwards.
func (r *Registry) SetEventsEnabled(enabled bool) {
	r.eventsEnabled = enabled
	for _, s := range r.stats {
		if s != nil {
			s.SetEventsEnabled(enabled)
		}
	}
}

// SetAutoRecompute applies the toggle to every owned stat and to every stat
// materialized afterwards.
func (r *Registry) SetAutoRecompute(enabled bool) {
	r.autoRecompute = enabled
	for _, s := range r.stats {
		if s != nil {
			s.SetAutoRecompute(enabled)
		}
	}
}

func (r *Registry) EventsEnabled() bool { return r.eventsEnabled }
func (r *Registry) AutoRecompute() bool { return r.autoRecompute }

// MarkAllDirty flags every owned stat.
func (r *Registry) MarkAllDirty() {
	for _, s := range r.stats {
		if s != nil {
			s.MarkDirty()
		}
	}
}

// Recompute recomputes stat k.
func (r *Registry) Recompute(k Kind) { r.Get(k).Recompute() }

// RecomputeAll recomputes every owned stat in declaration order.
func (r *Registry) RecomputeAll() {
	n := 0
	for _, s := range r.stats {
		if s != nil {
			s.Recompute()
			n++
		}
	}
	r.logger.Debug("recomputed all stats", "count", n)
}

// RecomputeDirty recomputes owned stats mutated since their last recompute
// and returns how many were recomputed.
func (r *Registry) RecomputeDirty() int {
	n := 0
	for _, s := range r.stats {
		if s != nil && s.IsDirty() {
			s.Recompute()
			n++
		}
	}
	return n
}

// Subscribe registers fn for changes of every owned stat, present and future.
func (r *Registry) Subscribe(fn Listener) Subscription { return r.listeners.subscribe(fn) }

// Unsubscribe removes a registry-level registration.
func (r *Registry) Unsubscribe(sub Subscription) bool { return r.listeners.unsubscribe(sub) }

// Snapshot copies every owned stat in declaration order.
func (r *Registry) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, kindCount)
	for _, s := range r.stats {
		if s != nil {
			out = append(out, s.Snapshot())
		}
	}
	return out
}
