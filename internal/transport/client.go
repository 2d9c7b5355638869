package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CyberDash/internal/utils"
)

const (
	DefaultBackendURL = "http://127.0.0.1:5000"
	DefaultIPInfoURL  = "https://ipinfo.io"

	maxBodySize = 1 << 20
)

// Client 仪表盘的出站客户端：直接请求 ipinfo.io，其余工具请求同源后端
type Client struct {
	backendURL string
	ipinfoURL  string
	logger     *utils.Logger
	httpClient *http.Client
}

// NewClient timeout 为 0 时沿用传输层默认行为（不设超时）
func NewClient(backendURL, ipinfoURL string, timeout time.Duration) *Client {
	if backendURL == "" {
		backendURL = DefaultBackendURL
	}
	if ipinfoURL == "" {
		ipinfoURL = DefaultIPInfoURL
	}
	return &Client{
		backendURL: strings.TrimRight(backendURL, "/"),
		ipinfoURL:  strings.TrimRight(ipinfoURL, "/"),
		logger:     utils.NewLogger("transport"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// IPInfoURL 构造 ipinfo 请求地址，token 为空时不附加查询参数
func (client *Client) IPInfoURL(address, token string) string {
	u := fmt.Sprintf("%s/%s/json", client.ipinfoURL, url.PathEscape(address))
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

// FetchIPInfo GET {ipinfo}/{address}/json[?token=KEY]
func (client *Client) FetchIPInfo(ctx context.Context, address, token string, out interface{}) error {
	target := client.IPInfoURL(address, token)
	client.logger.Debug("请求IP信息: %s/%s/json", client.ipinfoURL, address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return client.do(req, "ipinfo", out)
}

// PostJSON 以 JSON 请求体 POST 到后端路由并解码响应
func (client *Client) PostJSON(ctx context.Context, route string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("编码请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.backendURL+route, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client.logger.Debug("POST %s%s", client.backendURL, route)
	return client.do(req, route, out)
}

func (client *Client) do(req *http.Request, route string, out interface{}) error {
	resp, err := client.httpClient.Do(req)
	if err != nil {
		client.logger.Warn("无法连接 %s: %v", route, err)
		return &UnavailableError{Route: route, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &UnavailableError{Route: route, Err: fmt.Errorf("读取响应失败: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		client.logger.Warn("%s 返回错误: %s", route, resp.Status)
		return &RemoteError{Route: route, StatusCode: resp.StatusCode, Message: remoteMessage(body, resp.StatusCode)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Route: route, Err: err}
	}
	return nil
}

// remoteMessage 优先使用响应体中的 {"error": "..."}
func remoteMessage(body []byte, code int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(code)
}

// IsUnavailable 连接级失败（后端未连接）
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
