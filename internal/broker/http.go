package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/chidi150c/divergence-trader/internal/errs"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// HTTPAdapter is a generic venue HTTP client, ported from broker_bridge.go's
// manual http.Client + manual JSON decode idiom and generalized with
// broker_hitbtc.go/broker_binance.go's retry-by-hand pattern folded into
// WithRetry, plus a lock-guarded token session for venues that require
// re-authentication on 401 (spec §4.1).
type HTTPAdapter struct {
	id      string
	baseURL string
	client  *http.Client
	limiter *RateLimiter

	session *tokenSession

	// symbolMap resolves a local symbol to the venue's own product id string,
	// the same role parseProductSymbols/ProductID plays in the teacher.
	symbolMap map[string]string
}

type tokenSession struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	refresh   func(ctx context.Context) (token string, ttl time.Duration, err error)
}

func (s *tokenSession) get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refresh == nil {
		return "", nil
	}
	if s.token == "" || time.Until(s.expiresAt) < 30*time.Second {
		tok, ttl, err := s.refresh(ctx)
		if err != nil {
			return "", &errs.PermanentBrokerError{Op: "token_refresh", Err: err}
		}
		s.token = tok
		s.expiresAt = time.Now().Add(ttl)
	}
	return s.token, nil
}

func (s *tokenSession) forceRefresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refresh == nil {
		return "", nil
	}
	tok, ttl, err := s.refresh(ctx)
	if err != nil {
		return "", &errs.PermanentBrokerError{Op: "token_refresh", Err: err}
	}
	s.token, s.expiresAt = tok, time.Now().Add(ttl)
	return tok, nil
}

// NewHTTPAdapter constructs an adapter with the standard 15s timeout client,
// matching BridgeBroker's http.Client{Timeout: 15 * time.Second}.
func NewHTTPAdapter(brokerID, baseURL string, limiter *RateLimiter, refresh func(ctx context.Context) (string, time.Duration, error)) *HTTPAdapter {
	return &HTTPAdapter{
		id:        brokerID,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   limiter,
		session:   &tokenSession{refresh: refresh},
		symbolMap: make(map[string]string),
	}
}

func (a *HTTPAdapter) BrokerID() string { return a.id }

func (a *HTTPAdapter) MapSymbol(local, venue string) { a.symbolMap[local] = venue }

func (a *HTTPAdapter) venueSymbol(local string) string {
	if v, ok := a.symbolMap[local]; ok {
		return v
	}
	return local
}

// do issues a request with rate-limit acquisition, token attachment, and a
// single re-auth retry on 401, returning a typed TransientBrokerError
// or PermanentBrokerError per spec §4.1/§7's classification.
func (a *HTTPAdapter) do(ctx context.Context, category, method, path string, query url.Values, body any) ([]byte, error) {
	if a.limiter != nil {
		if err := a.limiter.Acquire(ctx, category); err != nil {
			return nil, err
		}
	}
	var bodyBytes []byte
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, &errs.PermanentBrokerError{Broker: a.id, Op: path, Err: err}
		}
		bodyBytes = bs
	}

	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	attemptOnce := func(retryAuth bool) ([]byte, int, error) {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		if tok, err := a.session.get(ctx); err == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		res, err := a.client.Do(req)
		if err != nil {
			return nil, 0, err
		}
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return b, res.StatusCode, nil
	}

	b, status, err := attemptOnce(false)
	if err != nil {
		return nil, &errs.TransientBrokerError{Broker: a.id, Op: path, Err: err}
	}
	if status == http.StatusUnauthorized {
		if _, rerr := a.session.forceRefresh(ctx); rerr == nil {
			b, status, err = attemptOnce(true)
			if err != nil {
				return nil, &errs.TransientBrokerError{Broker: a.id, Op: path, Err: err}
			}
		}
	}
	switch {
	case status == 0:
	case status >= 500 || status == http.StatusTooManyRequests:
		return nil, &errs.TransientBrokerError{Broker: a.id, Op: path, Err: fmt.Errorf("status %d: %s", status, string(b))}
	case status >= 400:
		return nil, &errs.PermanentBrokerError{Broker: a.id, Op: path, Err: fmt.Errorf("status %d: %s", status, string(b))}
	}
	return b, nil
}

func (a *HTTPAdapter) FetchOHLCV(ctx context.Context, symbol string, tf types.Timeframe, limit int) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("symbol", a.venueSymbol(symbol))
	q.Set("timeframe", string(tf))
	if limit <= 0 {
		limit = 300
	}
	q.Set("limit", strconv.Itoa(limit))

	var out []types.Candle
	err := WithRetry(ctx, func() error {
		b, err := a.do(ctx, "data", http.MethodGet, "/candles", q, nil)
		if err != nil {
			return err
		}
		type row struct {
			Time   any `json:"time"`
			Open   any `json:"open"`
			High   any `json:"high"`
			Low    any `json:"low"`
			Close  any `json:"close"`
			Volume any `json:"volume"`
		}
		var rows []row
		if jerr := json.Unmarshal(b, &rows); jerr != nil {
			return &errs.PermanentBrokerError{Broker: a.id, Op: "candles_decode", Err: jerr}
		}
		out = make([]types.Candle, 0, len(rows))
		for _, r := range rows {
			out = append(out, types.Candle{
				Time:   parseFlexTime(r.Time),
				Open:   parseFlexFloat(r.Open),
				High:   parseFlexFloat(r.High),
				Low:    parseFlexFloat(r.Low),
				Close:  parseFlexFloat(r.Close),
				Volume: parseFlexFloat(r.Volume),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return TimeSortCandles(out), nil
}

func (a *HTTPAdapter) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	var out Ticker
	err := WithRetry(ctx, func() error {
		b, err := a.do(ctx, "data", http.MethodGet, "/ticker", url.Values{"symbol": {a.venueSymbol(symbol)}}, nil)
		if err != nil {
			return err
		}
		var raw struct {
			Last any `json:"last"`
			Bid  any `json:"bid"`
			Ask  any `json:"ask"`
		}
		if jerr := json.Unmarshal(b, &raw); jerr != nil {
			return &errs.PermanentBrokerError{Broker: a.id, Op: "ticker_decode", Err: jerr}
		}
		out = Ticker{Last: parseFlexFloat(raw.Last), Bid: parseFlexFloat(raw.Bid), Ask: parseFlexFloat(raw.Ask)}
		return nil
	})
	return out, err
}

func (a *HTTPAdapter) FetchBalance(ctx context.Context) (Balance, error) {
	var out Balance
	err := WithRetry(ctx, func() error {
		b, err := a.do(ctx, "trading", http.MethodGet, "/balance", nil, nil)
		if err != nil {
			return err
		}
		var raw struct {
			Total any `json:"total"`
			Free  any `json:"free"`
			Used  any `json:"used"`
		}
		if jerr := json.Unmarshal(b, &raw); jerr != nil {
			return &errs.PermanentBrokerError{Broker: a.id, Op: "balance_decode", Err: jerr}
		}
		out = Balance{Total: parseFlexFloat(raw.Total), Free: parseFlexFloat(raw.Free), Used: parseFlexFloat(raw.Used)}
		return nil
	})
	return out, err
}

func (a *HTTPAdapter) CreateLimitOrder(ctx context.Context, symbol string, side Side, amount, price float64) (OrderAck, error) {
	return a.createOrder(ctx, "/order/limit", symbol, side, amount, map[string]any{"price": price})
}

func (a *HTTPAdapter) CreateStopOrder(ctx context.Context, symbol string, side Side, amount, stopPrice float64) (OrderAck, error) {
	return a.createOrder(ctx, "/order/stop", symbol, side, amount, map[string]any{"stop_price": stopPrice})
}

func (a *HTTPAdapter) createOrder(ctx context.Context, path, symbol string, side Side, amount float64, extra map[string]any) (OrderAck, error) {
	body := map[string]any{"symbol": a.venueSymbol(symbol), "side": side, "amount": amount}
	for k, v := range extra {
		body[k] = v
	}
	var ack OrderAck
	err := WithRetry(ctx, func() error {
		b, err := a.do(ctx, "trading", http.MethodPost, path, nil, body)
		if err != nil {
			return err
		}
		var raw map[string]any
		_ = json.Unmarshal(b, &raw)
		id, _ := raw["id"].(string)
		ack = OrderAck{ID: id, Raw: raw}
		return nil
	})
	return ack, err
}

func (a *HTTPAdapter) CancelOrder(ctx context.Context, orderID, symbol string) (OrderAck, error) {
	body := map[string]any{"order_id": orderID, "symbol": a.venueSymbol(symbol)}
	var ack OrderAck
	err := WithRetry(ctx, func() error {
		b, err := a.do(ctx, "trading", http.MethodPost, "/order/cancel", nil, body)
		if err != nil {
			return err
		}
		var raw map[string]any
		_ = json.Unmarshal(b, &raw)
		ack = OrderAck{ID: orderID, Raw: raw}
		return nil
	})
	return ack, err
}

func (a *HTTPAdapter) CheckConnectivity(ctx context.Context) error {
	_, err := a.do(ctx, "data", http.MethodGet, "/ping", nil, nil)
	return err
}

func (a *HTTPAdapter) Close() error { return nil }

func parseFlexFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func parseFlexTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		if tt, err := time.Parse(time.RFC3339, t); err == nil {
			return tt
		}
		if sec, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	case float64:
		return time.Unix(int64(t), 0).UTC()
	}
	return time.Time{}
}
