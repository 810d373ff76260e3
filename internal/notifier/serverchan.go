package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ServerChanNotifier pushes alerts through the Server酱 (ServerChan) relay,
// which forwards to a personal WeChat account.
type ServerChanNotifier struct {
	SendKey string
	Client  *http.Client
}

// NewServerChanNotifier creates a notifier with optional proxy support.
func NewServerChanNotifier(sendKey, proxyURL string) *ServerChanNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &ServerChanNotifier{
		SendKey: sendKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *ServerChanNotifier) Name() string { return "serverchan" }

func (s *ServerChanNotifier) Send(ctx context.Context, title, body string, severity Severity) error {
	apiURL := fmt.Sprintf("https://sctapi.ftqq.com/%s.send", url.PathEscape(s.SendKey))
	form := url.Values{
		"title": {title},
		"desp":  {body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("serverchan API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("serverchan API error: code %d, msg: %s", result.Code, result.Message)
	}
	return nil
}
