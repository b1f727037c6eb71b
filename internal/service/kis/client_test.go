package kis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RankPulse/pkg/logger"
)

func newTestServer(t *testing.T, tokenCalls *int, quoteHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		if tokenCalls != nil {
			*tokenCalls++
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_in":   86400,
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc(quotePath, quoteHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func quotePayload(price, prev string, marketName string) map[string]interface{} {
	return map[string]interface{}{
		"rt_cd": "0",
		"msg1":  "ok",
		"output": map[string]string{
			"stck_prpr":          price,
			"stck_oprc":          "4600",
			"stck_hgpr":          "5700",
			"stck_lwpr":          "4550",
			"stck_sdpr":          prev,
			"acml_vol":           "123456",
			"hts_kor_isnm":       "Samsung Electronics",
			"rprs_mrkt_kor_name": marketName,
			"bstp_kor_isnm":      "Semiconductors",
		},
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewClient(Config{
		BaseURL:   baseURL,
		AppKey:    "key",
		AppSecret: "secret",
		Timeout:   2 * time.Second,
	}, log)
}

func TestFetchParsesQuote(t *testing.T) {
	srv := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("authorization"); got != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(quotePayload("5670", "4500", "KOSPI200"))
	})
	c := newTestClient(t, srv.URL)

	quotes, err := c.Fetch(context.Background(), []string{"005930"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	q := quotes[0]
	if q.Code != "005930" || q.Price != 5670 || q.PrevClose != 4500 {
		t.Fatalf("unexpected quote %+v", q)
	}
	if q.Market != "KOSPI" {
		t.Fatalf("market not normalized: %q", q.Market)
	}
	if q.Name != "Samsung Electronics" || q.Volume != 123456 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestFetchNormalizesKosdaq(t *testing.T) {
	srv := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(quotePayload("5000", "5000", "코스닥"))
	})
	c := newTestClient(t, srv.URL)

	quotes, err := c.Fetch(context.Background(), []string{"247540"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if quotes[0].Market != "KOSDAQ" {
		t.Fatalf("expected KOSDAQ, got %q", quotes[0].Market)
	}
}

func TestFetchReusesToken(t *testing.T) {
	var tokenCalls int
	srv := newTestServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(quotePayload("5000", "5000", "KOSPI"))
	})
	c := newTestClient(t, srv.URL)

	ctx := context.Background()
	if _, err := c.Fetch(ctx, []string{"005930"}); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := c.Fetch(ctx, []string{"005930"}); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("token must be cached, requested %d times", tokenCalls)
	}
}

func TestFetchSkipsFailedCode(t *testing.T) {
	srv := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("fid_input_iscd")
		if code == "000000" {
			json.NewEncoder(w).Encode(map[string]interface{}{"rt_cd": "1", "msg1": "no such instrument"})
			return
		}
		json.NewEncoder(w).Encode(quotePayload("5000", "5000", "KOSPI"))
	})
	c := newTestClient(t, srv.URL)

	quotes, err := c.Fetch(context.Background(), []string{"000000", "005930"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Code != "005930" {
		t.Fatalf("failed code must be skipped, got %+v", quotes)
	}
}

func TestFetchAllFailedIsTransient(t *testing.T) {
	srv := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Fetch(context.Background(), []string{"005930"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsTransient(err) {
		t.Fatalf("a fully failed batch must be transient, got %v", err)
	}
}

func TestFetchAuthRejection(t *testing.T) {
	srv := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"rt_cd": "1", "msg1": "invalid token"})
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Fetch(context.Background(), []string{"005930"})
	if !IsAuth(err) {
		t.Fatalf("token rejection must surface as auth error, got %v", err)
	}
}
