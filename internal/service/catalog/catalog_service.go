package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"
	"geoclaim/internal/service/storage"
	"geoclaim/internal/util"

	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"
)

// pointTolerance gives point items a non-degenerate box in the R-tree.
const pointTolerance = 1e-9

// Source loads the full catalog from wherever it lives (Postgres, a GeoJSON seed, fixtures).
type Source interface {
	LoadItems(ctx context.Context) ([]model.CollectibleItem, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]model.CollectibleItem, error)

func (f SourceFunc) LoadItems(ctx context.Context) ([]model.CollectibleItem, error) { return f(ctx) }

// itemSpatial wraps an item for R-tree indexing
type itemSpatial struct {
	item  model.CollectibleItem
	order int
}

// Bounds implements rtreego.Spatial with (lng, lat) axes.
func (s *itemSpatial) Bounds() rtreego.Rect {
	return rtreego.Point{s.item.Location.Longitude, s.item.Location.Latitude}.ToRect(pointTolerance)
}

// Service holds the read-only catalog in memory, in source order, with a
// spatial index for viewport queries.
type Service struct {
	source          Source
	log             *zap.Logger
	storage         *storage.MemoryStorage[string, model.CollectibleItem]
	defaultRadiusKm float64

	indexMutex   sync.RWMutex
	spatialIndex *rtreego.Rtree

	initialized bool
	initMutex   sync.Mutex
}

func NewService(source Source, log *zap.Logger) *Service {
	return &Service{
		source:       source,
		log:          log,
		storage:      storage.NewMemoryStorage[string, model.CollectibleItem](),
		spatialIndex: rtreego.NewTree(2, 25, 50),
	}
}

// SetDefaultRadius sets the claim radius given to items that carry none.
func (s *Service) SetDefaultRadius(km float64) {
	s.defaultRadiusKm = km
}

// InitService loads the catalog once. Later calls are no-ops; use Refresh to reload.
func (s *Service) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.refresh(ctx); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Refresh reloads the catalog from the source and swaps it in atomically.
func (s *Service) Refresh(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) error {
	start := time.Now()
	items, err := s.source.LoadItems(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	loaded := s.Load(items)
	s.log.Info("catalog loaded",
		zap.Int("items", loaded),
		zap.Int("skipped", len(items)-loaded),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Load replaces the catalog with items, keeping their order. Items with an
// empty ID or invalid coordinates are skipped. It returns the number kept.
func (s *Service) Load(items []model.CollectibleItem) int {
	kept := make([]model.CollectibleItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			s.log.Warn("catalog item without id skipped", zap.String("name", item.Name))
			continue
		}
		if err := util.ValidatePoint(item.Location); err != nil {
			s.log.Warn("catalog item skipped", zap.String("item", item.ID), zap.Error(err))
			continue
		}
		if item.ClaimRadiusKm <= 0 && s.defaultRadiusKm > 0 {
			item.ClaimRadiusKm = s.defaultRadiusKm
		}
		kept = append(kept, item)
	}

	s.storage.Replace(kept, func(item model.CollectibleItem) string { return item.ID })
	s.rebuildSpatialIndex()
	return s.storage.Count()
}

func (s *Service) rebuildSpatialIndex() {
	items := s.storage.GetAllValues()
	objs := make([]rtreego.Spatial, len(items))
	for i, item := range items {
		objs[i] = &itemSpatial{item: item, order: i}
	}

	tree := rtreego.NewTree(2, 25, 50, objs...)

	s.indexMutex.Lock()
	s.spatialIndex = tree
	s.indexMutex.Unlock()
}

// List returns the whole catalog in source order.
func (s *Service) List(_ context.Context) ([]model.CollectibleItem, error) {
	return s.storage.GetAllValues(), nil
}

func (s *Service) Get(_ context.Context, id string) (model.CollectibleItem, error) {
	item, ok := s.storage.Get(id)
	if !ok {
		return model.CollectibleItem{}, fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	return item, nil
}

func (s *Service) Count() int {
	return s.storage.Count()
}

// InBounds returns the items inside the lat/lng box, in catalog order.
func (s *Service) InBounds(minLat, minLng, maxLat, maxLng float64) ([]model.CollectibleItem, error) {
	for _, p := range []model.GeoPoint{{Latitude: minLat, Longitude: minLng}, {Latitude: maxLat, Longitude: maxLng}} {
		if err := util.ValidatePoint(p); err != nil {
			return nil, err
		}
	}
	if maxLat < minLat || maxLng < minLng {
		return nil, fmt.Errorf("%w: empty bounds", errs.ErrInvalidCoordinates)
	}

	rect, err := rtreego.NewRect(
		rtreego.Point{minLng, minLat},
		[]float64{maxLng - minLng + pointTolerance, maxLat - minLat + pointTolerance},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidCoordinates, err)
	}

	s.indexMutex.RLock()
	hits := s.spatialIndex.SearchIntersect(rect)
	s.indexMutex.RUnlock()

	found := make([]*itemSpatial, 0, len(hits))
	for _, h := range hits {
		found = append(found, h.(*itemSpatial))
	}
	sort.Slice(found, func(i, j int) bool { return found[i].order < found[j].order })

	items := make([]model.CollectibleItem, len(found))
	for i, f := range found {
		items[i] = f.item
	}
	return items, nil
}

// Within returns the items whose location lies within radiusKm of p, using
// the spatial index as a prefilter.
func (s *Service) Within(p model.GeoPoint, radiusKm float64) ([]model.CollectibleItem, error) {
	minLat, minLng, maxLat, maxLng := util.BoundsAround(p, radiusKm)
	minLat, maxLat = max(minLat, -90), min(maxLat, 90)
	minLng, maxLng = max(minLng, -180), min(maxLng, 180)

	candidates, err := s.InBounds(minLat, minLng, maxLat, maxLng)
	if err != nil {
		return nil, err
	}
	items := candidates[:0]
	for _, item := range candidates {
		if util.DistanceKm(p, item.Location) <= radiusKm {
			items = append(items, item)
		}
	}
	return items, nil
}
