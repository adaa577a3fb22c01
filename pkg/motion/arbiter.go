package motion

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/observability"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/schedule"
)

// Request asks the arbiter to play a motion. Region is derived from Group
// when left empty. Callbacks are optional and run inside the listener
// error boundary.
type Request struct {
	ID       string
	Group    string
	Region   domain.Region
	Rank     domain.Rank
	Weight   float64
	FadeIn   time.Duration
	FadeOut  time.Duration
	Duration time.Duration

	OnStart     func()
	OnComplete  func()
	OnInterrupt func()
}

// FromDef builds a request carrying a catalog definition's timings and
// weight. The caller may override fields before submitting it.
func FromDef(def catalog.MotionDef) Request {
	return Request{
		Group:    def.Group,
		Region:   def.Region,
		Rank:     def.Rank,
		Weight:   def.Weight,
		FadeIn:   def.FadeIn,
		FadeOut:  def.FadeOut,
		Duration: def.Duration,
	}
}

// occupant pairs the live layer with the request that installed it so the
// arbiter can fire the right callbacks when the layer leaves its region.
type occupant struct {
	layer *domain.Layer
	req   Request
}

// Arbiter admits, rejects and evicts motion requests per body region.
// Each region holds at most one live layer; rank decides who keeps it.
// It is driven by the engine tick and is not safe for concurrent use.
type Arbiter struct {
	clock     *schedule.Clock
	logger    *slog.Logger
	avatar    ports.Avatar
	catalog   *catalog.Catalog
	occupants map[domain.Region]*occupant
	idle      *Request
	emitter   *observability.Emitter[domain.MotionEvent]
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithLogger sets the arbiter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Arbiter) {
		if l != nil {
			a.logger = l
			a.emitter.SetLogger(l)
		}
	}
}

// WithClock shares the engine's virtual clock.
func WithClock(c *schedule.Clock) Option {
	return func(a *Arbiter) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithAvatar forwards admitted motions to the rendering sink.
func WithAvatar(av ports.Avatar) Option {
	return func(a *Arbiter) { a.avatar = av }
}

// WithCatalog resolves regions through the catalog and enables
// near-miss suggestions for unknown groups.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *Arbiter) { a.catalog = c }
}

// NewArbiter creates an arbiter with every region free.
func NewArbiter(opts ...Option) *Arbiter {
	a := &Arbiter{
		clock:     schedule.NewClock(),
		logger:    logging.NewNop(),
		occupants: make(map[domain.Region]*occupant),
	}
	a.emitter = observability.NewEmitter[domain.MotionEvent](a.logger, "motion")
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Request resolves the group to a region and arbitrates: a strictly
// higher-ranked occupant rejects the request with no side effect, anything
// else is evicted (firing its interrupt callback) and the new layer starts
// its fade-in. Equal ranks replace, so the last writer wins. Returns
// whether the request was admitted.
func (a *Arbiter) Request(req Request) bool {
	admitted := a.admit(req, a.clock.Now())
	a.emitter.Flush()
	return admitted
}

// Stop frees a region. Immediate stops delete the layer on the spot,
// firing its interrupt callback (or complete, when it was already fading
// out) and replaying the idle motion if one is eligible. Graceful stops
// begin the layer's fade-out and leave completion to the tick. An empty
// region is a no-op.
func (a *Arbiter) Stop(region domain.Region, immediate bool) {
	a.stop(domain.ParseRegion(string(region)), immediate, a.clock.Now())
	a.emitter.Flush()
}

// StopAll applies Stop to every occupied region. A configured idle motion
// still replays into its freed region; clear it first to keep the
// character fully still.
func (a *Arbiter) StopAll(immediate bool) {
	now := a.clock.Now()
	for _, region := range domain.Regions() {
		if a.occupants[region] != nil {
			a.stop(region, immediate, now)
		}
	}
	a.emitter.Flush()
}

// SetIdle registers a perpetual motion replayed whenever its region is
// free, or clears it when req is nil. The rank is forced to idle so it
// never displaces real motions. When the region is free right now the
// idle starts immediately.
func (a *Arbiter) SetIdle(req *Request) {
	if req == nil {
		a.idle = nil
		a.logger.Debug("idle motion cleared")
		return
	}
	idle := *req
	idle.ID = ""
	idle.Rank = domain.RankIdle
	a.idle = &idle
	a.logger.Debug("idle motion set", "group", idle.Group)
	a.maybeStartIdle(a.resolveRegion(idle), a.clock.Now())
	a.emitter.Flush()
}

// IdleGroup returns the configured idle motion's group, or "".
func (a *Arbiter) IdleGroup() string {
	if a.idle == nil {
		return ""
	}
	return a.idle.Group
}

// Tick advances every occupant's fade state. Layers that finished their
// fade-out free their region, fire their complete callback and hand the
// region back to the idle motion when one is eligible. Events are
// buffered for the engine flush.
func (a *Arbiter) Tick() {
	now := a.clock.Now()
	var done []*occupant
	var freed []domain.Region
	for _, region := range domain.Regions() {
		occ := a.occupants[region]
		if occ == nil {
			continue
		}
		occ.layer.Advance(now)
		if occ.layer.Phase == domain.PhaseStopped {
			delete(a.occupants, region)
			done = append(done, occ)
			freed = append(freed, region)
		}
	}
	for i, occ := range done {
		a.emit(domain.MotionCompleted, freed[i], occ, now)
		domain.Guard(a.logger, "motion.on_complete", occ.req.OnComplete)
		a.maybeStartIdle(freed[i], now)
	}
}

// Occupant returns a copy of the layer holding a region.
func (a *Arbiter) Occupant(region domain.Region) (domain.Layer, bool) {
	if occ := a.occupants[domain.ParseRegion(string(region))]; occ != nil {
		return *occ.layer, true
	}
	return domain.Layer{}, false
}

// Layers returns copies of all occupying layers in region order.
func (a *Arbiter) Layers() []domain.Layer {
	out := make([]domain.Layer, 0, len(a.occupants))
	for _, region := range domain.Regions() {
		if occ := a.occupants[region]; occ != nil {
			out = append(out, *occ.layer)
		}
	}
	return out
}

// SetCatalog swaps the catalog used for region resolution. Live layers
// keep the regions they were admitted under.
func (a *Arbiter) SetCatalog(c *catalog.Catalog) {
	a.catalog = c
}

// Subscribe registers a listener for motion events; the returned func
// unsubscribes it.
func (a *Arbiter) Subscribe(fn func(domain.MotionEvent)) func() {
	return a.emitter.Subscribe(fn)
}

// Flush delivers events buffered during Tick.
func (a *Arbiter) Flush() { a.emitter.Flush() }

// Reset frees every region and clears the idle motion without firing
// callbacks or events.
func (a *Arbiter) Reset() {
	a.occupants = make(map[domain.Region]*occupant)
	a.idle = nil
	a.emitter.Drop()
}

func (a *Arbiter) admit(req Request, now time.Duration) bool {
	req.Rank = req.Rank.Clamp()
	req.Weight = domain.Clamp01(req.Weight)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	region := a.resolveRegion(req)

	if occ := a.occupants[region]; occ != nil {
		if occ.req.Rank > req.Rank {
			a.logger.Debug("motion rejected", "group", req.Group, "region", region, "rank", req.Rank, "occupant", occ.layer.Group, "occupant_rank", occ.req.Rank)
			a.emitter.Emit(domain.MotionEvent{
				Kind: domain.MotionRejected, Region: region,
				LayerID: req.ID, Group: req.Group, Rank: req.Rank, At: now,
			})
			return false
		}
		delete(a.occupants, region)
		a.emit(domain.MotionEvicted, region, occ, now)
		domain.Guard(a.logger, "motion.on_interrupt", occ.req.OnInterrupt)
		a.logger.Debug("motion evicted", "group", occ.layer.Group, "region", region, "by", req.Group)
	}

	l := domain.NewLayer(req.ID, req.Group, req.Weight, int(req.Rank), domain.BlendOverride, now)
	l.Duration = req.Duration
	l.FadeIn = req.FadeIn
	l.FadeOut = req.FadeOut
	a.occupants[region] = &occupant{layer: &l, req: req}

	domain.Guard(a.logger, "motion.on_start", req.OnStart)
	if a.avatar != nil {
		a.avatar.PlayMotion(req.Group, req.Rank)
	}
	a.emitter.Emit(domain.MotionEvent{
		Kind: domain.MotionStarted, Region: region,
		LayerID: req.ID, Group: req.Group, Rank: req.Rank, At: now,
	})
	a.logger.Debug("motion admitted", "group", req.Group, "region", region, "rank", req.Rank)
	return true
}

func (a *Arbiter) stop(region domain.Region, immediate bool, now time.Duration) {
	occ := a.occupants[region]
	if occ == nil {
		return
	}
	if !immediate {
		occ.layer.BeginFadeOut(now)
		if occ.layer.Phase != domain.PhaseStopped {
			a.logger.Debug("motion fading out", "group", occ.layer.Group, "region", region)
			return
		}
		// A zero fade-out stops on the spot; fall through to completion.
	}
	delete(a.occupants, region)
	if occ.layer.Phase == domain.PhaseFadeOut || occ.layer.Phase == domain.PhaseStopped {
		a.emit(domain.MotionCompleted, region, occ, now)
		domain.Guard(a.logger, "motion.on_complete", occ.req.OnComplete)
	} else {
		a.emit(domain.MotionInterrupted, region, occ, now)
		domain.Guard(a.logger, "motion.on_interrupt", occ.req.OnInterrupt)
	}
	a.logger.Debug("motion stopped", "group", occ.layer.Group, "region", region, "immediate", immediate)
	a.maybeStartIdle(region, now)
}

// maybeStartIdle replays the idle motion into region when it is the idle's
// region and currently free.
func (a *Arbiter) maybeStartIdle(region domain.Region, now time.Duration) {
	if a.idle == nil || a.occupants[region] != nil {
		return
	}
	if a.resolveRegion(*a.idle) != region {
		return
	}
	a.admit(*a.idle, now)
}

// resolveRegion maps a request to its region: an explicit region wins,
// then the catalog lookup, then the group-name heuristic. The mapping is
// total; unknown names land on the full-body region.
func (a *Arbiter) resolveRegion(req Request) domain.Region {
	if req.Region != "" {
		return domain.ParseRegion(string(req.Region))
	}
	if a.catalog != nil {
		if _, ok := a.catalog.Motion(req.Group); !ok {
			if near, ok := a.catalog.SuggestMotion(req.Group); ok {
				a.logger.Warn("unknown motion group", "group", req.Group, "did_you_mean", near)
			} else {
				a.logger.Debug("unknown motion group", "group", req.Group)
			}
		}
		return a.catalog.RegionOf(req.Group)
	}
	return domain.GuessRegion(req.Group)
}

func (a *Arbiter) emit(kind domain.MotionEventKind, region domain.Region, occ *occupant, now time.Duration) {
	a.emitter.Emit(domain.MotionEvent{
		Kind:    kind,
		Region:  region,
		LayerID: occ.layer.ID,
		Group:   occ.layer.Group,
		Rank:    occ.req.Rank,
		At:      now,
	})
}
