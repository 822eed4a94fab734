package usecase

import (
	"context"
	"fmt"

	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/domain/repository"
)

const (
	StrategyContour       = "contour"
	StrategyBox           = "box"
	StrategyDirectContour = "direct_contour"
	StrategyQuarter       = "quarter"
)

// searchLayers - категории, которые ищутся по отдельности: сначала участки, потом ОКС
var searchLayers = []domain.Layer{domain.LayerLandPlot, domain.LayerStructure}

// searchState - состояние одного прогона цепочки. Принадлежит одному запросу.
type searchState struct {
	repo    repository.CadastralRepository
	contour *domain.Contour
	extent  domain.BoundingExtent
	results []domain.RawResult
	trace   *domain.SearchTrace
}

// collect записывает вызов в журнал и добавляет отобранные объекты.
// Ошибку возвращает только при отказе по размеру области.
func (s *searchState) collect(strategy string, res domain.CallResult, kept []domain.RawResult, note string) error {
	s.trace.Record(strategy, res, len(kept))
	if note != "" {
		s.trace.Entries[len(s.trace.Entries)-1].Note = note
	}

	if res.Status == domain.CallFailed && domain.IsContourTooLarge(res.Err) {
		return fmt.Errorf("%w: %s", domain.ErrContourTooLarge, res.Err.Error())
	}

	s.results = append(s.results, kept...)
	return nil
}

type strategy interface {
	name() string
	run(ctx context.Context, st *searchState) error
}

// contourStrategy - поиск участков и ОКС точно по контуру
type contourStrategy struct {
	label string
	// requireAreal - пропускать контур, если это не Polygon/MultiPolygon
	requireAreal bool
}

func (s contourStrategy) name() string { return s.label }

func (s contourStrategy) run(ctx context.Context, st *searchState) error {
	if s.requireAreal && !st.contour.IsAreal() {
		st.trace.Note(s.label, fmt.Sprintf("geometry kind %q is not areal, skipped", st.contour.Kind))
		return nil
	}

	for _, layer := range searchLayers {
		results, err := st.repo.SearchInContour(ctx, layer, st.contour)
		res := domain.NewCallResult(fmt.Sprintf("%s_in_contour", layer), results, err)
		if err := st.collect(s.label, res, res.Results, ""); err != nil {
			return err
		}
	}
	return nil
}

// boxStrategy - поиск по прямоугольнику охвата: общий метод, если источник
// его даёт, иначе по каждой категории отдельно
type boxStrategy struct{}

func (boxStrategy) name() string { return StrategyBox }

func (s boxStrategy) run(ctx context.Context, st *searchState) error {
	sw, ne := st.extent.SouthWest(), st.extent.NorthEast()

	combined := domain.Unsupported("in_box")
	if searcher, ok := st.repo.(repository.BoxSearcher); ok {
		results, err := searcher.SearchInBox(ctx, sw, ne)
		combined = domain.NewCallResult("in_box", results, err)
	}
	if err := st.collect(StrategyBox, combined, combined.Results, ""); err != nil {
		return err
	}
	if combined.Status != domain.CallUnsupported {
		return nil
	}

	searcher, ok := st.repo.(repository.LayerBoxSearcher)
	if !ok {
		return st.collect(StrategyBox, domain.Unsupported("layer_in_box"), nil, "")
	}

	for _, layer := range searchLayers {
		results, err := searcher.SearchLayerInBox(ctx, layer, sw, ne)
		res := domain.NewCallResult(fmt.Sprintf("%s_in_box", layer), results, err)
		if err := st.collect(StrategyBox, res, res.Results, ""); err != nil {
			return err
		}
	}
	return nil
}

// quarterStrategy - перебор кадастровых кварталов из конфигурации с
// отбором объектов, чей охват пересекает охват контура
type quarterStrategy struct {
	quarters []string
}

func (quarterStrategy) name() string { return StrategyQuarter }

func (s quarterStrategy) run(ctx context.Context, st *searchState) error {
	if len(s.quarters) == 0 {
		st.trace.Note(StrategyQuarter, "no fallback quarters configured")
		return nil
	}

	for _, quarter := range s.quarters {
		results, err := st.repo.Search(ctx, quarter)
		res := domain.NewCallResult("quarter_search", results, err)
		kept := filterByExtent(res.Results, st.extent.BBox)
		if err := st.collect(StrategyQuarter, res, kept, "quarter "+quarter); err != nil {
			return err
		}
	}
	return nil
}

// filterByExtent оставляет объекты, чей прямоугольник пересекает box.
// Объекты без вычислимой геометрии отбрасываются.
func filterByExtent(results []domain.RawResult, box domain.BBox) []domain.RawResult {
	kept := make([]domain.RawResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		bounds, ok := domain.Bounds(r.RawGeometry())
		if ok && box.Intersects(bounds) {
			kept = append(kept, r)
		}
	}
	return kept
}

// ChainResult - сырые объекты и журнал решений одного прогона
type ChainResult struct {
	Results []domain.RawResult
	Trace   *domain.SearchTrace
}

// SearchChain - упорядоченный набор стратегий поиска. Стратегии идут строго
// последовательно, цепочка останавливается на первой, после которой есть результат.
type SearchChain struct {
	strategies []strategy
}

// NewSearchChain собирает цепочку: контур, прямоугольник, повтор по контуру, кварталы
func NewSearchChain(quarters []string) *SearchChain {
	return &SearchChain{
		strategies: []strategy{
			contourStrategy{label: StrategyContour},
			boxStrategy{},
			contourStrategy{label: StrategyDirectContour, requireAreal: true},
			quarterStrategy{quarters: append([]string(nil), quarters...)},
		},
	}
}

// Run прогоняет цепочку. Возвращает ошибку только при отказе по размеру
// области (ErrContourTooLarge) или отмене контекста; журнал есть всегда.
func (c *SearchChain) Run(ctx context.Context, repo repository.CadastralRepository, contour *domain.Contour) (*ChainResult, error) {
	st := &searchState{
		repo:    repo,
		contour: contour,
		extent:  domain.NewBoundingExtent(contour.OuterRings()...),
	}
	st.trace = &domain.SearchTrace{Extent: st.extent}

	for i, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			st.trace.Aborted = true
			st.trace.Skipped = c.names(i)
			return &ChainResult{Trace: st.trace}, err
		}

		if err := s.run(ctx, st); err != nil {
			st.trace.Aborted = true
			st.trace.StoppedAfter = s.name()
			st.trace.Skipped = c.names(i + 1)
			st.trace.RawCount = len(st.results)
			return &ChainResult{Trace: st.trace}, err
		}

		if len(st.results) > 0 {
			st.trace.StoppedAfter = s.name()
			st.trace.Skipped = c.names(i + 1)
			break
		}
	}

	st.trace.RawCount = len(st.results)
	return &ChainResult{Results: st.results, Trace: st.trace}, nil
}

func (c *SearchChain) names(from int) []string {
	if from >= len(c.strategies) {
		return nil
	}
	out := make([]string, 0, len(c.strategies)-from)
	for _, s := range c.strategies[from:] {
		out = append(out, s.name())
	}
	return out
}
