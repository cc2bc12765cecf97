package http

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "gsewatch/internal/errors"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.]{2,10}$`)

// MarketHandler serves market data endpoints.
type MarketHandler struct {
	service MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a market handler.
func NewMarketHandler(service MarketService, logger *slog.Logger) *MarketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketHandler{
		service: service,
		logger:  logger.With(slog.String("component", "market_handler")),
	}
}

// Routes returns the market routes.
func (h *MarketHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/market", h.GetMarket)
	r.Get("/market/summary", h.GetSummary)
	r.Post("/market/refresh", h.RefreshMarket)

	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.ListStocks)
		r.Route("/{symbol}", func(r chi.Router) {
			r.Use(h.SymbolCtx)
			r.Get("/", h.GetStock)
		})
	})

	return r
}

// SymbolCtx validates the symbol parameter.
func (h *MarketHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if !symbolPattern.MatchString(symbol) {
			h.renderError(w, r, apierrors.ErrValidation("symbol", "Invalid symbol format"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetMarket handles GET /api/market: the full market document.
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	md, err := h.service.MarketData(r.Context())
	if err != nil {
		h.renderError(w, r, apierrors.DatasetError(err))
		return
	}
	render.JSON(w, r, md)
}

// GetSummary handles GET /api/market/summary.
func (h *MarketHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	md, err := h.service.MarketData(r.Context())
	if err != nil {
		h.renderError(w, r, apierrors.DatasetError(err))
		return
	}
	render.JSON(w, r, md.Summary)
}

// RefreshMarket handles POST /api/market/refresh: forces a dataset
// reload, bypassing the cache.
func (h *MarketHandler) RefreshMarket(w http.ResponseWriter, r *http.Request) {
	md, err := h.service.Refresh(r.Context())
	if err != nil {
		h.renderError(w, r, apierrors.DatasetError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status":      "refreshed",
		"stock_count": md.StockCount,
		"lastUpdated": md.LastUpdated,
	})
}

// ListStocks handles GET /api/stocks: symbol, name, price and change
// for every listed stock, without histories.
func (h *MarketHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	md, err := h.service.MarketData(r.Context())
	if err != nil {
		h.renderError(w, r, apierrors.DatasetError(err))
		return
	}

	type listEntry struct {
		Symbol        string  `json:"symbol"`
		Name          string  `json:"name"`
		Sector        string  `json:"sector"`
		Price         float64 `json:"price"`
		Change        float64 `json:"change"`
		ChangePercent float64 `json:"changePercent"`
		Volume        int64   `json:"volume"`
	}
	entries := make([]listEntry, 0, len(md.Stocks))
	for _, s := range md.Stocks {
		entries = append(entries, listEntry{
			Symbol:        s.Symbol,
			Name:          s.Name,
			Sector:        s.Sector,
			Price:         s.Price,
			Change:        s.Change,
			ChangePercent: s.ChangePercent,
			Volume:        s.Volume,
		})
	}
	render.JSON(w, r, map[string]interface{}{
		"count":  len(entries),
		"stocks": entries,
	})
}

// GetStock handles GET /api/stocks/{symbol}. The optional limit query
// parameter bounds the returned history.
func (h *MarketHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	stock, found, err := h.service.Stock(r.Context(), symbol)
	if err != nil {
		h.renderError(w, r, apierrors.DatasetError(err))
		return
	}
	if !found {
		h.renderError(w, r, apierrors.SymbolNotFoundError(symbol))
		return
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.renderError(w, r, apierrors.ErrValidation("limit", "limit must be a positive integer"))
			return
		}
		if len(stock.History) > limit {
			trimmed := *stock
			trimmed.History = stock.History[len(stock.History)-limit:]
			stock = &trimmed
		}
	}
	render.JSON(w, r, stock)
}

func (h *MarketHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", apiErr.Message))
	}
	if err := render.Render(w, r, apiErr); err != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
