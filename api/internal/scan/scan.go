// Package scan runs one photo through ingestion, analysis and normalization
// and commits the result to a session only while the run is still live.
package scan

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"menu-lens/api/internal/analysis"
	"menu-lens/api/internal/dish"
	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/progress"
	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/session"
	"menu-lens/api/internal/store"
)

// Navigator is the screen flow owned by the front-end.
type Navigator interface {
	ToScanning()
	ToResults()
	ToCapture()
}

// ProgressObserver may be implemented by a Navigator that renders the
// indicator itself. status is the short message while Errored.
type ProgressObserver interface {
	OnProgress(state progress.State, pct float64, status string)
}

// Cache short-circuits the engine for photos already analyzed.
type Cache interface {
	Find(ctx context.Context, k store.Key, maxAge time.Duration) (string, error)
	Upsert(ctx context.Context, k store.Key, raw string) error
}

type Scanner struct {
	Ingest     *ingest.Ingestor
	Builder    *analysis.Builder
	Engines    *analysis.Engines
	Normalizer *dish.Normalizer

	Cache       Cache // optional
	CacheMaxAge time.Duration

	Progress progress.Options
}

// Run is one scan in flight.
type Run struct {
	Token    session.Token
	Progress *progress.Controller

	sess   *session.Session
	nav    Navigator
	cancel context.CancelFunc

	// analyzed, waiting for the hold to elapse
	pending     []dish.Dish
	pendingMenu bool

	once   sync.Once
	done   chan struct{}
	dishes []dish.Dish
	isMenu bool
	err    error
}

// Start begins a scan of photoRef and returns immediately. Any earlier run on
// sess stops being live. language may be empty (default applies); llmName
// picks the engine.
func (s *Scanner) Start(ctx context.Context, sess *session.Session, photoRef, language, llmName string, nav Navigator) *Run {
	tok, started := sess.BeginScan(photoRef)
	rctx, cancel := context.WithCancel(ctx)
	r := &Run{
		Token:  tok,
		sess:   sess,
		nav:    nav,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	opt := s.Progress
	userChange, userDone, userCancel := opt.OnChange, opt.OnDone, opt.OnCancel
	if po, ok := nav.(ProgressObserver); ok {
		opt.OnChange = func(st progress.State, pct float64) {
			if userChange != nil {
				userChange(st, pct)
			}
			po.OnProgress(st, pct, r.Progress.Status())
		}
	}
	opt.OnDone = func() {
		if userDone != nil {
			userDone()
		}
		r.commit()
	}
	opt.OnCancel = func() {
		if userCancel != nil {
			userCancel()
		}
		nav.ToCapture()
	}
	r.Progress = progress.New(opt)
	nav.ToScanning()
	_ = r.Progress.Start()

	go s.exec(rctx, r, photoRef, language, llmName, started)
	return r
}

func (s *Scanner) exec(ctx context.Context, r *Run, photoRef, language, llmName string, started time.Time) {
	dishes, isMenu, err := s.analyze(ctx, photoRef, language, llmName, started)
	if !r.sess.IsLive(r.Token) {
		r.Progress.Cancel()
		r.settle(nil, false, scanerr.ErrStale)
		return
	}
	if err != nil {
		log.Printf("scan %s: %s: %v", r.sess.ID, scanerr.Kind(err), err)
		r.sess.Abort(r.Token)
		r.Progress.Fail(err)
		r.settle(nil, false, err)
		return
	}
	r.pending, r.pendingMenu = dishes, isMenu
	if !r.Progress.Succeed() {
		r.settle(nil, false, scanerr.ErrStale)
	}
	// commit happens in OnDone once the hold elapses
}

func (s *Scanner) analyze(ctx context.Context, photoRef, language, llmName string, started time.Time) ([]dish.Dish, bool, error) {
	payload, err := s.Ingest.Payload(ctx, photoRef)
	if err != nil {
		return nil, false, err
	}
	eng, err := s.Engines.Get(llmName)
	if err != nil {
		return nil, false, err
	}
	req, err := s.Builder.Build(payload, language, eng.Name())
	if err != nil {
		return nil, false, &scanerr.IngestionError{Ref: photoRef, Err: err}
	}
	key := store.Key{ImageHash: payload.Hash, Engine: eng.Name(), Model: eng.Model(), Language: req.Language}

	raw, cached := s.lookup(ctx, key)
	if !cached {
		raw, err = eng.Analyze(ctx, req)
		if err != nil {
			return nil, false, err
		}
	}

	dishes, isMenu, err := s.Normalizer.Normalize(raw, started, photoRef)
	if err != nil {
		return nil, false, err
	}
	if !cached && s.Cache != nil {
		if err := s.Cache.Upsert(ctx, key, raw); err != nil {
			log.Printf("cache upsert %s: %v", key.ImageHash, err)
		}
	}
	return dishes, isMenu, nil
}

func (s *Scanner) lookup(ctx context.Context, k store.Key) (string, bool) {
	if s.Cache == nil {
		return "", false
	}
	raw, err := s.Cache.Find(ctx, k, s.CacheMaxAge)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("cache find %s: %v", k.ImageHash, err)
		}
		return "", false
	}
	return raw, true
}

func (r *Run) commit() {
	if !r.sess.Commit(r.Token, r.pending) {
		r.settle(nil, false, scanerr.ErrStale)
		return
	}
	r.nav.ToResults()
	r.settle(r.pending, r.pendingMenu, nil)
}

func (r *Run) settle(dishes []dish.Dish, isMenu bool, err error) {
	r.once.Do(func() {
		r.dishes, r.isMenu, r.err = dishes, isMenu, err
		r.cancel()
		close(r.done)
	})
}

// Cancel is the user stop: the in-flight request is abandoned, nothing is
// committed and the flow returns to capture.
func (r *Run) Cancel() {
	if r.stop() {
		r.nav.ToCapture()
	}
}

// Stop is Cancel without navigation, for a run replaced by a newer one.
func (r *Run) Stop() { r.stop() }

func (r *Run) stop() bool {
	r.sess.Abort(r.Token)
	stopped := r.Progress.Cancel()
	r.settle(nil, false, scanerr.ErrStale)
	return stopped
}

// Done is closed once the run has settled.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run settles: committed dishes, the failure, or
// ErrStale for a run that was cancelled or superseded.
func (r *Run) Wait() ([]dish.Dish, bool, error) {
	<-r.done
	return r.dishes, r.isMenu, r.err
}
