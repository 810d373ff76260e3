package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const wechatAPIBase = "https://qyapi.weixin.qq.com/cgi-bin"

// Markdown accent colors understood by the WeChat Work client.
var wechatColors = map[Severity]string{
	SeverityInfo:    "#10aeff",
	SeverityWarning: "#ffc300",
	SeverityError:   "#ff0000",
}

// WeChatNotifier sends markdown alerts to all members of a WeChat Work
// (企业微信) application agent.
type WeChatNotifier struct {
	CorpID  string
	Secret  string
	AgentID int
	Client  *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewWeChatNotifier creates a notifier with optional proxy support.
func NewWeChatNotifier(corpID, secret string, agentID int, proxyURL string) *WeChatNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WeChatNotifier{
		CorpID:  corpID,
		Secret:  secret,
		AgentID: agentID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (w *WeChatNotifier) Name() string { return "wechat" }

// token returns a cached access token, refreshing it shortly before expiry.
func (w *WeChatNotifier) token(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.accessToken != "" && time.Now().Before(w.tokenExpiry) {
		return w.accessToken, nil
	}

	apiURL := fmt.Sprintf("%s/gettoken?corpid=%s&corpsecret=%s", wechatAPIBase, url.QueryEscape(w.CorpID), url.QueryEscape(w.Secret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get token: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ErrCode     int    `json:"errcode"`
		ErrMsg      string `json:"errmsg"`
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if result.ErrCode != 0 {
		return "", fmt.Errorf("wechat API error: code %d, msg: %s", result.ErrCode, result.ErrMsg)
	}

	w.accessToken = result.AccessToken
	// Refresh 200 seconds early so in-flight sends never race expiry.
	w.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-200) * time.Second)
	return w.accessToken, nil
}

// Send delivers a markdown message to the agent's full audience.
func (w *WeChatNotifier) Send(ctx context.Context, title, body string, severity Severity) error {
	token, err := w.token(ctx)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("## <font color=\"%s\">%s</font>\n%s", wechatColors[severity], title, body)
	payload := map[string]interface{}{
		"touser":  "@all",
		"msgtype": "markdown",
		"agentid": w.AgentID,
		"markdown": map[string]string{
			"content": content,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/message/send?access_token=%s", wechatAPIBase, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wechat API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if result.ErrCode != 0 {
		// Token may have been invalidated server-side; drop the cache so
		// the next attempt re-authenticates.
		if result.ErrCode == 40014 || result.ErrCode == 42001 {
			w.mu.Lock()
			w.accessToken = ""
			w.mu.Unlock()
		}
		return fmt.Errorf("wechat API error: code %d, msg: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}
