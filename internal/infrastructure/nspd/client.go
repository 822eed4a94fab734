package nspd

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/cadastral-search/internal/config"
	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/domain/repository"
	"github.com/cadastral-search/internal/pkg/metrics"
)

const (
	intersectsPath = "/api/geoportal/v1/intersects"
	searchPath     = "/api/geoportal/v2/search/geoportal"

	// thematicSearchID - тематический поиск по объектам недвижимости
	thematicSearchID = "1"

	maxResponseSize = 32 << 20
	breakerName     = "nspd"
)

// ErrSessionClosed - вызов через уже закрытую сессию
var ErrSessionClosed = errors.New("nspd session is closed")

// tooLargeMarkers - признаки отказа геопортала по размеру области
var tooLargeMarkers = []string{domain.TooBigContourMarker, "слишком большой", "слишком большая"}

// StatusError - ответ геопортала с кодом ошибки
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nspd API error: status %d, body: %s", e.Code, e.Body)
}

// Factory открывает сессии к геопорталу. Предохранитель общий для всех
// сессий: если НСПД лежит, новые запросы не ждут таймаута.
type Factory struct {
	cfg       *config.NSPDConfig
	transport *http.Transport
	breaker   *gobreaker.CircuitBreaker[[]byte]
	logger    *zap.Logger
}

// NewFactory создает фабрику сессий НСПД
func NewFactory(cfg *config.NSPDConfig, breakerCfg *config.BreakerConfig, logger *zap.Logger) *Factory {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		// у геопортала сертификат НУЦ Минцифры, которого нет в системных корнях
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	f := &Factory{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
	}
	f.breaker = newBreaker(breakerCfg, logger)
	return f
}

func newBreaker(cfg *config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isBreakerSuccess,
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[[]byte](settings)
}

// isBreakerSuccess: сбоем источника считаются только сетевые ошибки и 5xx.
// Отказ по размеру области и отмена запроса клиентом источник не портят.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrContourTooLarge) || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < http.StatusInternalServerError
	}
	return false
}

// Open открывает сессию на один запрос пользователя
func (f *Factory) Open(ctx context.Context) (repository.CadastralRepository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transport := f.transport.Clone()
	id := uuid.NewString()

	return &session{
		id:        id,
		cfg:       f.cfg,
		transport: transport,
		httpClient: &http.Client{
			Timeout:   time.Duration(f.cfg.RequestTimeout) * time.Second,
			Transport: transport,
		},
		breaker: f.breaker,
		logger:  f.logger.With(zap.String("nspd_session", id)),
	}, nil
}

// session - одна сессия к геопорталу: свой пул соединений, общий предохранитель
type session struct {
	id         string
	cfg        *config.NSPDConfig
	transport  *http.Transport
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
	closed     atomic.Bool
}

var (
	_ repository.CadastralRepository = (*session)(nil)
	_ repository.LayerBoxSearcher    = (*session)(nil)
)

// SearchInContour ищет объекты слоя, пересекающие контур
func (s *session) SearchInContour(ctx context.Context, layer domain.Layer, contour *domain.Contour) ([]domain.RawResult, error) {
	categoryID, err := s.category(layer)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(newIntersectsRequest(categoryID, contour))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := s.cfg.BaseURL + intersectsPath + "?typeIntersect=fullObject"
	s.logger.Debug("Calling NSPD intersects",
		zap.String("layer", string(layer)),
		zap.Int("category", categoryID),
		zap.String("kind", string(contour.Kind)))

	data, err := s.do(ctx, "intersects", http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// SearchLayerInBox ищет объекты слоя в прямоугольнике SW-NE
func (s *session) SearchLayerInBox(ctx context.Context, layer domain.Layer, sw, ne domain.Position) ([]domain.RawResult, error) {
	return s.SearchInContour(ctx, layer, boxContour(sw, ne))
}

// Search - текстовый поиск (кадастровый номер или квартал)
func (s *session) Search(ctx context.Context, query string) ([]domain.RawResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("thematicSearchId", thematicSearchID)

	endpoint := s.cfg.BaseURL + searchPath + "?" + params.Encode()
	s.logger.Debug("Calling NSPD search", zap.String("query", query))

	data, err := s.do(ctx, "search", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// Find возвращает объект с точным совпадением номера или nil
func (s *session) Find(ctx context.Context, cadastralNumber string) (domain.RawResult, error) {
	cn := strings.TrimSpace(cadastralNumber)
	found, err := s.Search(ctx, cn)
	if err != nil {
		return nil, err
	}
	for _, raw := range found {
		if numberOf(raw) == cn {
			return raw, nil
		}
	}
	return nil, nil
}

// Close закрывает сессию; повторный вызов ничего не делает
func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.transport.CloseIdleConnections()
	s.logger.Debug("NSPD session closed")
	return nil
}

func (s *session) category(layer domain.Layer) (int, error) {
	switch layer {
	case domain.LayerLandPlot:
		return s.cfg.LandPlotCategory, nil
	case domain.LayerStructure:
		return s.cfg.StructureCategory, nil
	default:
		return 0, fmt.Errorf("unknown layer %q", layer)
	}
}

// do выполняет запрос через предохранитель и пишет метрики
func (s *session) do(ctx context.Context, endpoint, method, target string, payload []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	start := time.Now()
	data, err := s.breaker.Execute(func() ([]byte, error) {
		return s.roundTrip(ctx, method, target, payload)
	})
	metrics.NSPDRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.NSPDRequests.WithLabelValues(endpoint, resultLabel(err)).Inc()

	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn("NSPD request rejected by circuit breaker", zap.String("endpoint", endpoint))
		return nil, fmt.Errorf("nspd unavailable: %w", err)
	case errors.Is(err, domain.ErrContourTooLarge):
		s.logger.Info("NSPD rejected oversized area", zap.String("endpoint", endpoint))
		return nil, err
	default:
		s.logger.Error("NSPD request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
}

func (s *session) roundTrip(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Referer", s.cfg.BaseURL+"/map")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		// геопортал отвечает 404, когда ничего не найдено
		return nil, nil
	case resp.StatusCode >= http.StatusBadRequest:
		if msg, ok := tooLarge(data); ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrContourTooLarge, msg)
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	return data, nil
}

func (s *session) decode(data []byte) ([]domain.RawResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	features := fc.all()
	out := make([]domain.RawResult, 0, len(features))
	for _, f := range features {
		out = append(out, toRawResult(f))
	}

	s.logger.Debug("NSPD response decoded", zap.Int("features", len(out)))
	return out, nil
}

// tooLarge распознаёт отказ по размеру области и возвращает текст ошибки
func tooLarge(data []byte) (string, bool) {
	text := string(data)
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Code == domain.TooBigContourMarker {
			return domain.TooBigContourMarker, true
		}
		if eb.Message != "" {
			text = eb.Code + " " + eb.Message + " " + eb.Detail
		}
	}

	for _, marker := range tooLargeMarkers {
		if strings.Contains(text, marker) {
			return strings.TrimSpace(truncate(text, 256)), true
		}
	}
	return "", false
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case errors.Is(err, domain.ErrContourTooLarge):
		return "too_large"
	default:
		return "error"
	}
}

// truncate обрезает строку до n байт, не разрывая UTF-8 символ
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
