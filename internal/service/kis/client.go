package kis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/service/ratelimit"
	httpclient "RankPulse/pkg/http"
	"RankPulse/pkg/logger"
)

const (
	tokenPath = "/oauth2/tokenP"
	quotePath = "/uapi/domestic-stock/v1/quotations/inquire-price"

	quoteTrID = "FHKST01010100"

	// KIS allows 20 requests per second per app key on live accounts.
	quoteRateKey    = "kis:quote"
	quoteRateBurst  = 20.0
	quoteRatePerSec = 20.0
)

// Config holds KIS open API credentials and addresses.
type Config struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	Timeout   time.Duration
}

// Client is a SnapshotSource backed by the KIS domestic quotation REST API.
// Access tokens are cached and refreshed shortly before expiry.
type Client struct {
	cfg  Config
	http *httpclient.Client
	log  *logger.Logger
	rl   *ratelimit.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: httpclient.NewClient(httpclient.WithTimeout(timeout)),
		log:  log,
		rl:   ratelimit.New(),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// accessToken returns a valid token, requesting a new one when the cached
// token is missing or within a minute of expiring.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	var resp tokenResponse
	err := c.http.SendAndParse(ctx, &httpclient.RequestOptions{
		Method: httpclient.MethodPost,
		URL:    c.cfg.BaseURL + tokenPath,
		Body: map[string]string{
			"grant_type": "client_credentials",
			"appkey":     c.cfg.AppKey,
			"appsecret":  c.cfg.AppSecret,
		},
	}, &resp)
	if err != nil {
		if isServerSide(err) {
			return "", &TransientError{Op: "token", Err: err}
		}
		return "", &AuthError{Msg: err.Error()}
	}
	if resp.AccessToken == "" {
		return "", &AuthError{Msg: "empty access token"}
	}

	c.token = resp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	c.log.Debug("kis token refreshed", logger.Int("expires_in", resp.ExpiresIn))
	return c.token, nil
}

type quoteResponse struct {
	RtCd   string `json:"rt_cd"`
	Msg    string `json:"msg1"`
	Output struct {
		Price      string `json:"stck_prpr"`
		Open       string `json:"stck_oprc"`
		High       string `json:"stck_hgpr"`
		Low        string `json:"stck_lwpr"`
		PrevClose  string `json:"stck_sdpr"`
		Volume     string `json:"acml_vol"`
		Name       string `json:"hts_kor_isnm"`
		MarketName string `json:"rprs_mrkt_kor_name"`
		SectorName string `json:"bstp_kor_isnm"`
	} `json:"output"`
}

// Fetch returns quotes for the requested codes. A code the API cannot resolve
// is skipped and logged; only auth failures or a fully failed batch error out.
func (c *Client) Fetch(ctx context.Context, codes []string) ([]models.Quote, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quotes := make([]models.Quote, 0, len(codes))
	var lastErr error
	for _, code := range codes {
		q, err := c.fetchOne(ctx, token, code, now)
		if err != nil {
			if IsAuth(err) {
				return nil, err
			}
			lastErr = err
			c.log.Warn("kis quote fetch failed", logger.String("code", code), logger.Error(err))
			continue
		}
		quotes = append(quotes, q)
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, &TransientError{Op: "fetch", Err: lastErr}
	}
	return quotes, nil
}

// waitQuota blocks until the quote rate limit grants a token or the context
// is cancelled.
func (c *Client) waitQuota(ctx context.Context) error {
	for !c.rl.Allow(quoteRateKey, quoteRateBurst, quoteRatePerSec) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

func (c *Client) fetchOne(ctx context.Context, token, code string, at time.Time) (models.Quote, error) {
	if err := c.waitQuota(ctx); err != nil {
		return models.Quote{}, &TransientError{Op: "quote " + code, Err: err}
	}

	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &httpclient.RequestOptions{
		Method: httpclient.MethodGet,
		URL:    c.cfg.BaseURL + quotePath,
		Headers: map[string]string{
			"authorization": "Bearer " + token,
			"appkey":        c.cfg.AppKey,
			"appsecret":     c.cfg.AppSecret,
			"tr_id":         quoteTrID,
		},
		QueryParams: map[string][]string{
			"fid_cond_mrkt_div_code": {"J"},
			"fid_input_iscd":         {code},
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, &TransientError{Op: "quote " + code, Err: err}
	}
	if resp.RtCd != "0" {
		if strings.Contains(resp.Msg, "token") || strings.Contains(resp.Msg, "TOKEN") {
			return models.Quote{}, &AuthError{Msg: resp.Msg}
		}
		return models.Quote{}, fmt.Errorf("kis: quote %s rejected: %s", code, resp.Msg)
	}

	out := resp.Output
	return models.Quote{
		Code:      code,
		Name:      out.Name,
		Market:    normalizeMarketName(out.MarketName),
		Sector:    out.SectorName,
		Price:     parseNum(out.Price),
		Open:      parseNum(out.Open),
		High:      parseNum(out.High),
		Low:       parseNum(out.Low),
		Volume:    parseNum(out.Volume),
		PrevClose: parseNum(out.PrevClose),
		Timestamp: at,
	}, nil
}

// Close releases nothing today; the interface keeps the door open for
// connection pooling.
func (c *Client) Close() error { return nil }

func parseNum(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeMarketName maps the API's Korean market label onto the canonical
// market identifiers.
func normalizeMarketName(name string) string {
	if strings.Contains(name, "KOSDAQ") || strings.Contains(name, "코스닥") {
		return "KOSDAQ"
	}
	return "KOSPI"
}

func isServerSide(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "status 5") ||
		strings.Contains(msg, "status 429") ||
		strings.Contains(msg, "request failed")
}
