package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsewatch/pkg/contracts/domain"
)

type stubMarketService struct {
	data    *domain.MarketData
	err     error
	refresh int
}

func (s *stubMarketService) MarketData(ctx context.Context) (*domain.MarketData, error) {
	return s.data, s.err
}

func (s *stubMarketService) Stock(ctx context.Context, symbol string) (*domain.StockData, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	upper := strings.ToUpper(symbol)
	for i := range s.data.Stocks {
		if s.data.Stocks[i].Symbol == upper {
			return &s.data.Stocks[i], true, nil
		}
	}
	return nil, false, nil
}

func (s *stubMarketService) Refresh(ctx context.Context) (*domain.MarketData, error) {
	s.refresh++
	return s.data, s.err
}

func testMarketData() *domain.MarketData {
	history := make([]domain.HistoryPoint, 10)
	for i := range history {
		history[i] = domain.HistoryPoint{Date: "2024-03-01", Close: 5.5}
	}
	return &domain.MarketData{
		LastUpdated: "2024-03-15",
		StockCount:  2,
		Stocks: []domain.StockData{
			{Symbol: "GCB", Name: "GCB Bank Limited", Price: 5.60, History: history},
			{Symbol: "MTNGH", Name: "MTN Ghana", Price: 1.50},
		},
		Summary: domain.MarketSummary{TotalStocks: 2, LatestDate: "2024-03-15"},
	}
}

func newTestRouter(svc MarketService) chi.Router {
	h := NewMarketHandler(svc, nil)
	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return r
}

func doRequest(t *testing.T, r chi.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetMarket(t *testing.T) {
	r := newTestRouter(&stubMarketService{data: testMarketData()})
	rec := doRequest(t, r, http.MethodGet, "/api/market")

	require.Equal(t, http.StatusOK, rec.Code)
	var md domain.MarketData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &md))
	assert.Equal(t, 2, md.StockCount)
	assert.Equal(t, "2024-03-15", md.LastUpdated)
}

func TestGetMarketServiceFailure(t *testing.T) {
	r := newTestRouter(&stubMarketService{err: errors.New("disk gone")})
	rec := doRequest(t, r, http.MethodGet, "/api/market")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var apiErr struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "DATASET_ERROR", apiErr.ErrorCode)
}

func TestGetSummary(t *testing.T) {
	r := newTestRouter(&stubMarketService{data: testMarketData()})
	rec := doRequest(t, r, http.MethodGet, "/api/market/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.MarketSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalStocks)
}

func TestRefreshMarket(t *testing.T) {
	svc := &stubMarketService{data: testMarketData()}
	r := newTestRouter(svc)
	rec := doRequest(t, r, http.MethodPost, "/api/market/refresh")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.refresh)
}

func TestListStocksOmitsHistory(t *testing.T) {
	r := newTestRouter(&stubMarketService{data: testMarketData()})
	rec := doRequest(t, r, http.MethodGet, "/api/stocks/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "history")
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestGetStock(t *testing.T) {
	r := newTestRouter(&stubMarketService{data: testMarketData()})

	t.Run("known symbol, case-insensitive", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/stocks/gcb/")
		require.Equal(t, http.StatusOK, rec.Code)
		var stock domain.StockData
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
		assert.Equal(t, "GCB", stock.Symbol)
		assert.Len(t, stock.History, 10)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/stocks/ZZZZ/")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid symbol format", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/stocks/%24%24/")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history limit", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/stocks/GCB/?limit=3")
		require.Equal(t, http.StatusOK, rec.Code)
		var stock domain.StockData
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
		assert.Len(t, stock.History, 3)
	})

	t.Run("bad limit rejected", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/stocks/GCB/?limit=nope")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
