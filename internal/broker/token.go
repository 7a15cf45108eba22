package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const refreshPath = "/validate-refresh-token"

// RefresherOptions parameterise the token refresher.
type RefresherOptions struct {
	BaseURL      string
	AppIDHash    string
	RefreshToken string
	Timeout      time.Duration
}

// Refresher 用 refresh token 周期性换取新的 access token。
type Refresher struct {
	baseURL      string
	appIDHash    string
	refreshToken string
	client       *http.Client
	logger       zerolog.Logger
	onToken      func(string)
}

// NewRefresher constructs a refresher; onToken receives every new token.
func NewRefresher(opts RefresherOptions, onToken func(string), logger zerolog.Logger) *Refresher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api-t1.fyers.in/api/v3"
	}

	return &Refresher{
		baseURL:      baseURL,
		appIDHash:    opts.AppIDHash,
		refreshToken: opts.RefreshToken,
		client:       &http.Client{Timeout: timeout},
		logger:       logger.With().Str("component", "token_refresh").Logger(),
		onToken:      onToken,
	}
}

// Refresh 调用 validate-refresh-token 接口并下发新 token。
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.refreshToken == "" {
		return fmt.Errorf("refresh token not configured")
	}

	payload := map[string]string{
		"grant_type":    "refresh_token",
		"appIdHash":     r.appIDHash,
		"refresh_token": r.refreshToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal refresh payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send refresh request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status      string `json:"s"`
		Message     string `json:"message"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	if result.AccessToken == "" {
		return fmt.Errorf("token 刷新失败 (%d): %s", resp.StatusCode, result.Message)
	}

	if r.onToken != nil {
		r.onToken(result.AccessToken)
	}
	r.logger.Info().Msg("access token 已刷新")
	return nil
}
