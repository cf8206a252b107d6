// Package session hosts the server-side state of one screenshot annotation
// screen. Every mutation goes through the session mutex, so callers see the
// same serialized event order a single UI thread would give them.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"annotator/internal/annotate"
	"annotator/internal/annotate/capture"
	"annotator/internal/annotate/catalog"
	"annotator/internal/annotate/geometry"
	"annotator/internal/annotate/projector"
	"annotator/internal/annotate/registry"
	"annotator/internal/annotate/viewport"
	"annotator/internal/gateway/notify"
	"annotator/internal/gateway/repository/screenshot"
)

var (
	ErrNotMounted   = errors.New("session is not mounted")
	ErrNoMetrics    = errors.New("display or reference size unknown")
	ErrFinished     = errors.New("session already advanced")
	ErrClosed       = errors.New("session closed")
	ErrInvalidParam = errors.New("invalid session parameters")
)

type ImageLoader interface {
	Load(ctx context.Context, draftID, ref string) (screenshot.Image, error)
}

// ConfigStore is the wizard session store.
type ConfigStore interface {
	Get(ctx context.Context, draftID string) (projector.Config, error)
	Put(ctx context.Context, draftID string, cfg projector.Config) error
}

type Deps struct {
	Images   ImageLoader
	Catalog  catalog.Source
	Filter   catalog.Filter
	Configs  ConfigStore
	Notifier notify.Notifier
	Log      *zap.Logger
	// Colors overrides the overlay color generator.
	Colors registry.ColorFunc
	// IsNotFound reports a missing seed config. Defaults to never.
	IsNotFound func(error) bool
	// Drafts guards saves into a shared draft. Manager fills it in.
	Drafts *DraftLocks
}

// Params identify what a session annotates.
type Params struct {
	DraftID    string `json:"draft_id"`
	Variant    string `json:"variant"`
	Activity   string `json:"activity"`
	Screenshot string `json:"screenshot"`
}

func (p Params) normalized() (Params, error) {
	p.DraftID = strings.TrimSpace(p.DraftID)
	p.Variant = strings.TrimSpace(p.Variant)
	p.Activity = strings.TrimSpace(p.Activity)
	p.Screenshot = strings.TrimSpace(p.Screenshot)
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"draft_id", p.DraftID}, {"variant", p.Variant},
		{"activity", p.Activity}, {"screenshot", p.Screenshot},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return p, fmt.Errorf("%w: %s required", ErrInvalidParam, strings.Join(missing, ", "))
	}
	return p, nil
}

type Session struct {
	id     string
	params Params
	deps   Deps
	log    *zap.Logger
	window *viewport.Observer

	mu       sync.Mutex
	release  func()
	mounted  bool
	finished bool
	closed   bool

	image    screenshot.Image
	metrics  geometry.Metrics
	machine  capture.Machine
	reg      registry.Registry
	snap     catalog.Snapshot
	seed     projector.Config
	depIndex catalog.Dependencies
}

func New(id string, p Params, deps Deps, window *viewport.Observer) (*Session, error) {
	p, err := p.normalized()
	if err != nil {
		return nil, err
	}
	if deps.Images == nil || deps.Catalog == nil || deps.Configs == nil {
		return nil, fmt.Errorf("session deps: images, catalog and configs are required")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Log)
	}
	if deps.IsNotFound == nil {
		deps.IsNotFound = func(error) bool { return false }
	}
	if window == nil {
		window = viewport.NewObserver()
	}
	return &Session{
		id:     id,
		params: p,
		deps:   deps,
		log:    deps.Log.With(zap.String("session_id", id), zap.String("draft_id", p.DraftID)),
		window: window,
		reg:    registry.New(registry.WithColors(deps.Colors)),
	}, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Params() Params { return s.params }

func (s *Session) registryOpts() []registry.Option {
	return []registry.Option{registry.WithColors(s.deps.Colors)}
}

// Mount loads the screenshot, the catalogs and the seed configuration, then
// attaches the viewport subscription. A failed mount keeps whatever state the
// session had before.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	img, err := s.deps.Images.Load(ctx, s.params.DraftID, s.params.Screenshot)
	if err != nil {
		return s.fail(ctx, "Could not load the screenshot", fmt.Errorf("load screenshot: %w", err))
	}
	snap, err := catalog.Load(ctx, s.deps.Catalog, s.deps.Filter)
	if err != nil {
		return s.fail(ctx, "Could not load the function catalog", err)
	}
	seed, err := s.deps.Configs.Get(ctx, s.params.DraftID)
	switch {
	case err == nil:
	case s.deps.IsNotFound(err):
		seed = projector.Config{}
	default:
		return s.fail(ctx, "Could not load the wizard configuration", fmt.Errorf("load wizard config: %w", err))
	}
	reg, seeded, err := projector.SeedRegistry(seed, s.params.Variant, s.params.Activity, s.registryOpts()...)
	if err != nil {
		return s.fail(ctx, "Saved screenshot elements are unreadable", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.release
	s.release = nil
	s.image = img
	s.metrics.Reference = img.Size
	s.snap = snap
	s.seed = seed
	s.depIndex = catalog.NewDependencies(seed)
	s.reg = reg
	s.machine.Discard()
	s.mounted = true
	s.finished = false
	s.mu.Unlock()

	if old != nil {
		old()
	}
	cancel := s.window.Subscribe(s.onResize)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrClosed
	}
	s.release = cancel
	s.mu.Unlock()

	s.log.Info("session mounted",
		zap.String("screenshot", img.Ref),
		zap.Int("ref_width", img.Size.Width), zap.Int("ref_height", img.Size.Height),
		zap.Bool("seeded", seeded), zap.Int("elements", reg.Len()),
		zap.Int("functions", len(snap.Functions)))
	return nil
}

func (s *Session) fail(ctx context.Context, msg string, err error) error {
	s.log.Error(msg, zap.Error(err))
	s.deps.Notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Message: msg, SessionID: s.id})
	return err
}

// Resize publishes a new display size to the session's viewport.
func (s *Session) Resize(size geometry.Size) {
	s.window.Publish(size)
}

func (s *Session) onResize(size geometry.Size) {
	s.mu.Lock()
	s.metrics.Display = size
	s.mu.Unlock()
}

func (s *Session) ready() error {
	switch {
	case s.closed:
		return ErrClosed
	case !s.mounted:
		return ErrNotMounted
	case s.finished:
		return ErrFinished
	}
	return nil
}

// PointerDown starts a capture at the display-space offset. Missing or
// negative offsets are clamped to 1.
func (s *Session) PointerDown(x, y *int) (geometry.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return geometry.Point{}, err
	}
	p := capture.ClampPoint(x, y)
	s.machine.PointerDown(p)
	return p, nil
}

// PointerUp closes the drag and returns the candidate region in reference
// space.
func (s *Session) PointerUp(x, y *int) (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return geometry.Rect{}, err
	}
	if !s.metrics.Ready() {
		return geometry.Rect{}, ErrNoMetrics
	}
	return s.machine.PointerUp(capture.ClampPoint(x, y), s.metrics)
}

func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	s.machine.Discard()
	return nil
}

// Commit binds the pending region to the operator's draft and appends it to
// the registry. Every validation problem is reported at once; on failure the
// pending region is kept so the operator can fix the form and retry.
func (s *Session) Commit(d catalog.Draft) (registry.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return registry.Region{}, err
	}

	verr := &annotate.ValidationError{}
	rect, ok := s.machine.Region()
	switch {
	case !ok:
		verr.Add(annotate.FlagRegionMissing)
	case rect.Empty():
		verr.Add(annotate.FlagEmptyRegion)
	}
	behavior, err := catalog.Bind(s.snap, s.depIndex, d)
	var bindErr *annotate.ValidationError
	switch {
	case errors.As(err, &bindErr):
		for _, f := range bindErr.Flags {
			verr.Add(f)
		}
	case err != nil:
		return registry.Region{}, err
	}
	if err := verr.Err(); err != nil {
		return registry.Region{}, err
	}

	key := strings.TrimSpace(d.ComponentKey)
	next, region := s.reg.Add(key, rect, behavior)
	if _, err := s.machine.Confirm(); err != nil {
		return registry.Region{}, err
	}
	s.reg = next
	s.log.Debug("region committed", zap.String("key", key), zap.Int("region_id", region.ID))
	return region, nil
}

func (s *Session) Remove(key string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	next, err := s.reg.Remove(key, index)
	if err != nil {
		s.log.Error("remove region", zap.String("key", key), zap.Int("index", index), zap.Error(err))
		return err
	}
	s.reg = next
	return nil
}

func (s *Session) Registry() registry.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg
}

func (s *Session) Catalog() catalog.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) Dependencies() catalog.Dependencies {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depIndex
}

// FunctionParams lists the parameters the operator must fill in for
// functionID, in declaration order.
func (s *Session) FunctionParams(functionID int) ([]catalog.Param, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return nil, ErrNotMounted
	}
	return s.snap.ResolveParams(functionID)
}

type AdvanceResult struct {
	Merged   bool `json:"merged"`
	Elements int  `json:"elements"`
}

// Advance projects the registry into the draft's current configuration and
// saves it. The stored config is re-read under the draft lock so columns saved
// by other sessions since mount survive. Navigation proceeds whether or not
// anything was merged. A failed load or save keeps the registry so the
// operator can retry.
func (s *Session) Advance(ctx context.Context) (AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return AdvanceResult{}, err
	}

	res := AdvanceResult{Elements: s.reg.Len()}
	cfg := s.seed
	if !s.reg.Empty() {
		unlock := s.deps.Drafts.Lock(s.params.DraftID)
		defer unlock()

		current, err := s.deps.Configs.Get(ctx, s.params.DraftID)
		switch {
		case err == nil:
		case s.deps.IsNotFound(err):
			current = projector.Config{}
		default:
			return res, s.fail(ctx, "Could not load the wizard configuration", fmt.Errorf("reload wizard config: %w", err))
		}
		cfg, res.Merged = projector.Project(current, s.params.Variant, s.params.Activity, s.reg, s.params.Screenshot)
	}
	if res.Merged {
		if err := s.deps.Configs.Put(ctx, s.params.DraftID, cfg); err != nil {
			return AdvanceResult{Elements: res.Elements},
				s.fail(ctx, "Could not save the screenshot elements", fmt.Errorf("save wizard config: %w", err))
		}
		s.deps.Notifier.Notify(ctx, notify.Notice{
			Level: notify.LevelSuccess, Message: "Screenshot elements saved", SessionID: s.id,
		})
	}

	s.seed = cfg
	s.reg = registry.New(s.registryOpts()...)
	s.machine.Discard()
	s.finished = true
	s.log.Info("session advanced", zap.Bool("merged", res.Merged), zap.Int("elements", res.Elements))
	return res, nil
}

// Close releases the viewport subscription. It is safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	release := s.release
	s.release = nil
	s.mu.Unlock()
	if release != nil {
		release()
	}
}
