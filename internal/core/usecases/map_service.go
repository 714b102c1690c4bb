package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/pkg/metrics"
	"github.com/samirrijal/districtmap/internal/pkg/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const documentCacheKey = "map:document"

// Forgetter is implemented by dataset sources that cache fetched datasets.
type Forgetter interface {
	Forget(name string)
}

// MapService owns the live render session and the current map document.
type MapService struct {
	source   ports.DatasetSource
	cache    ports.CacheService
	events   ports.EventPublisher
	opts     RenderOptions
	cacheTTL int

	mu      sync.Mutex
	session *RenderSession
	doc     *domain.MapDocument
}

// NewMapService creates a new MapService. cache and events may be nil.
func NewMapService(source ports.DatasetSource, cache ports.CacheService, events ports.EventPublisher, opts RenderOptions, cacheTTL int) *MapService {
	if cacheTTL <= 0 {
		cacheTTL = 300
	}
	return &MapService{
		source:   source,
		cache:    cache,
		events:   events,
		opts:     opts,
		cacheTTL: cacheTTL,
	}
}

// Document returns the current map document, rendering it on first use.
func (s *MapService) Document(ctx context.Context) (*domain.MapDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentLocked(ctx)
}

func (s *MapService) documentLocked(ctx context.Context) (*domain.MapDocument, error) {
	if s.doc != nil {
		return s.doc, nil
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, documentCacheKey); err == nil {
			var doc domain.MapDocument
			if err := json.Unmarshal(data, &doc); err == nil {
				metrics.CacheHits.WithLabelValues("map").Inc()
				s.doc = &doc
				return s.doc, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("map").Inc()
	}

	return s.renderLocked(ctx)
}

// Render runs the full pipeline and replaces the live session.
func (s *MapService) Render(ctx context.Context) (*domain.MapDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked(ctx)
}

func (s *MapService) renderLocked(ctx context.Context) (*domain.MapDocument, error) {
	ctx, span := tracer.Start(ctx, "map.render", trace.WithAttributes(telemetry.AttrScope.String("full")))
	defer span.End()

	start := time.Now()
	session := NewRenderSession(s.source, s.opts)
	doc, err := session.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("render map: %w", err)
	}
	metrics.RendersTotal.WithLabelValues("full").Inc()
	metrics.RenderDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())

	s.session = session
	s.commitLocked(ctx, doc)
	return doc, nil
}

// RefreshTermini rebuilds only the terminus layer of the live session. The
// old terminus layer is removed and the new one is drawn on top. Without a
// live session a full render runs instead.
func (s *MapService) RefreshTermini(ctx context.Context) (*domain.MapDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.source.(Forgetter); ok {
		f.Forget(s.opts.Datasets.Termini)
	}
	if s.session == nil {
		return s.renderLocked(ctx)
	}

	ctx, span := tracer.Start(ctx, "map.render", trace.WithAttributes(telemetry.AttrScope.String("termini")))
	defer span.End()

	start := time.Now()
	if err := s.session.AddTermini(ctx); err != nil {
		metrics.DatasetFetchErrors.WithLabelValues(s.opts.Datasets.Termini).Inc()
		return nil, fmt.Errorf("refresh termini: %w", err)
	}
	doc, err := s.session.Document()
	if err != nil {
		return nil, err
	}
	metrics.RendersTotal.WithLabelValues("termini").Inc()
	metrics.RenderDuration.WithLabelValues("termini").Observe(time.Since(start).Seconds())

	s.commitLocked(ctx, doc)
	return doc, nil
}

// HandleDatasetUpdate reacts to a changed dataset. A terminus update rebuilds
// the terminus layer in place; anything else drops the rendered document so
// the next request renders from scratch.
func (s *MapService) HandleDatasetUpdate(ctx context.Context, u *domain.DatasetUpdate) error {
	if u == nil {
		return nil
	}
	slog.InfoContext(ctx, "dataset updated", "dataset", u.Name, "features", u.Features)

	if u.Name == s.opts.Datasets.Termini {
		_, err := s.RefreshTermini(ctx)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.source.(Forgetter); ok {
		f.Forget(u.Name)
	}
	s.session = nil
	s.doc = nil
	if s.cache != nil {
		if err := s.cache.Delete(ctx, documentCacheKey); err != nil {
			slog.WarnContext(ctx, "failed to drop cached map", "error", err)
		}
	}
	return nil
}

// Layer returns a single layer of the current document.
func (s *MapService) Layer(ctx context.Context, id string) (*domain.Layer, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	l := doc.Layer(id)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return l, nil
}

// Layers returns the layer summaries in draw order.
func (s *MapService) Layers(ctx context.Context) ([]domain.LayerSummary, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LayerSummary, len(doc.Layers))
	for i := range doc.Layers {
		out[i] = doc.Layers[i].Summary()
	}
	return out, nil
}

// Stops returns the popup data of every rendered stop of the given mode, or
// of both modes when mode is empty.
func (s *MapService) Stops(ctx context.Context, mode domain.TransportMode) ([]domain.StopInfo, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}

	layers := []struct {
		id   string
		mode domain.TransportMode
	}{
		{domain.LayerBusStops, domain.ModeBus},
		{domain.LayerTramStops, domain.ModeTram},
	}

	var out []domain.StopInfo
	for _, l := range layers {
		if mode != "" && mode != l.mode {
			continue
		}
		layer := doc.Layer(l.id)
		if layer == nil {
			continue
		}
		for _, rf := range layer.Features {
			if rf.Feature == nil {
				continue
			}
			out = append(out, StopInfoFor(rf.Feature, l.mode))
		}
	}
	return out, nil
}

// Termini returns the popup data of every rendered terminus.
func (s *MapService) Termini(ctx context.Context) ([]domain.TerminusInfo, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	layer := doc.Layer(domain.LayerTermini)
	if layer == nil {
		return nil, nil
	}
	out := make([]domain.TerminusInfo, 0, len(layer.Features))
	for _, rf := range layer.Features {
		if rf.Feature != nil {
			out = append(out, TerminusInfoFor(rf.Feature))
		}
	}
	return out, nil
}

// View returns the initial viewport.
func (s *MapService) View(ctx context.Context) (domain.View, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return domain.View{}, err
	}
	return doc.View, nil
}

// LegendHTML returns the rendered legend panel.
func (s *MapService) LegendHTML(ctx context.Context) (string, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return "", err
	}
	return doc.LegendHTML, nil
}

func (s *MapService) commitLocked(ctx context.Context, doc *domain.MapDocument) {
	s.doc = doc

	if s.cache != nil {
		if data, err := json.Marshal(doc); err == nil {
			if err := s.cache.Set(ctx, documentCacheKey, data, s.cacheTTL); err != nil {
				slog.WarnContext(ctx, "failed to cache map", "error", err)
			}
		}
	}

	if s.events != nil {
		ids := make([]string, len(doc.Layers))
		for i := range doc.Layers {
			ids[i] = doc.Layers[i].ID
		}
		if err := s.events.PublishMapUpdated(ctx, &domain.MapUpdate{Layers: ids, RenderedAt: doc.RenderedAt}); err != nil {
			slog.WarnContext(ctx, "failed to publish map update", "error", err)
		}
	}
}
