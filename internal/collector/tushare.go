package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FractalSentinel/internal/model"
)

// DefaultTushareURL is the Tushare Pro HTTP endpoint.
const DefaultTushareURL = "http://api.tushare.pro"

// TushareFetcher implements Fetcher using the Tushare Pro API.
type TushareFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewTushareFetcher creates a new fetcher with optional proxy support.
func NewTushareFetcher(baseURL, token, proxyURL string) *TushareFetcher {
	if baseURL == "" {
		baseURL = DefaultTushareURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TushareFetcher{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *TushareFetcher) Name() string { return "tushare" }

// tushareRequest is the Tushare Pro request envelope.
type tushareRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// tushareResponse is the Tushare Pro response envelope. Rows come back as
// positional arrays matching the fields list; dates are strings, prices and
// volumes are numbers.
type tushareResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

func (f *TushareFetcher) FetchDailyBars(code string, start, end time.Time) ([]model.Bar, error) {
	tsCode := NormalizeCode(code)
	apiName := "daily"
	if IsIndexCode(code) {
		apiName = "index_daily"
	}

	reqBody := tushareRequest{
		APIName: apiName,
		Token:   f.Token,
		Params: map[string]string{
			"ts_code":    tsCode,
			"start_date": start.Format("20060102"),
			"end_date":   end.Format("20060102"),
		},
		Fields: "trade_date,open,high,low,close,vol",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := f.Client.Post(f.BaseURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result tushareResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("tushare API error: code %d, msg: %s", result.Code, result.Msg)
	}

	idx := make(map[string]int, len(result.Data.Fields))
	for i, name := range result.Data.Fields {
		idx[name] = i
	}
	for _, name := range []string{"trade_date", "open", "high", "low", "close", "vol"} {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("tushare response missing field %q", name)
		}
	}

	bars := make([]model.Bar, 0, len(result.Data.Items))
	for _, row := range result.Data.Items {
		if len(row) < len(result.Data.Fields) {
			continue
		}
		dateStr, ok := row[idx["trade_date"]].(string)
		if !ok {
			return nil, fmt.Errorf("trade_date is %T, want string", row[idx["trade_date"]])
		}
		date, err := time.ParseInLocation("20060102", dateStr, CST)
		if err != nil {
			return nil, fmt.Errorf("parse trade date %q: %w", dateStr, err)
		}
		bar := model.Bar{Date: date}
		for _, fld := range []struct {
			name string
			dst  *float64
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
			{"vol", &bar.Volume},
		} {
			v, err := asFloat(row[idx[fld.name]])
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", fld.name, err)
			}
			*fld.dst = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// asFloat tolerates the numeric encodings Tushare has been seen to emit.
func asFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(x, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}

// CST is the Chinese market timezone used for all trading-day keys.
var CST = time.FixedZone("CST", 8*3600)

// NormalizeCode appends the exchange suffix for bare 6-digit A-share codes:
// 6xxxxx trades in Shanghai, everything else in Shenzhen, and well-known
// index roots (000xxx of non-standard length) map to Shanghai.
func NormalizeCode(code string) string {
	if strings.Contains(code, ".") {
		return code
	}
	switch {
	case strings.HasPrefix(code, "399"):
		return code + ".SZ"
	case strings.HasPrefix(code, "000"):
		if len(code) == 6 {
			return code + ".SZ"
		}
		return code + ".SH"
	case strings.HasPrefix(code, "6"):
		return code + ".SH"
	default:
		return code + ".SZ"
	}
}

// IsIndexCode reports whether a code should be fetched through the index
// endpoint rather than the stock endpoint.
func IsIndexCode(code string) bool {
	return strings.HasPrefix(code, "000") || strings.HasPrefix(code, "399")
}
