// Package client 是 photovault HTTP 接口的 Go 客户端，供命令行子命令使用.
//
// 每次调用都按重试策略执行，只有连接失败与超时会重试. 服务端返回 400 时错误为
// errs.KindValidation，其余非 200 状态码返回 *HTTPError.
//
//	c := client.New(cfg.Client, retry.FromConfig(cfg.Retry))
//	users, err := c.Users(ctx)
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/retry"
)

// HTTPError 服务端返回了 400 以外的非 200 状态码.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client photovault HTTP 客户端，可并发使用.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
}

// Option 调整客户端.
type Option func(*Client)

// WithHTTPClient 替换底层 *http.Client，测试中用于注入 httptest 的客户端.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New 创建客户端.
func New(cfg configs.ClientConfig, policy retry.Policy, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		policy:  policy,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PingResult M 为对象数，N 为用户数；对应依赖不可用时 MErr/NErr 为服务端给出的错误描述.
type PingResult struct {
	M    int64
	MErr string
	N    int64
	NErr string
}

// Ping 调用 GET /ping.
func (c *Client) Ping(ctx context.Context) (PingResult, error) {
	var resp types.PingResponse
	if err := c.do(ctx, "ping", http.MethodGet, "/ping", nil, &resp); err != nil {
		return PingResult{}, err
	}

	var res PingResult
	res.M, res.MErr = pingSlot(resp.M)
	res.N, res.NErr = pingSlot(resp.N)

	return res, nil
}

// pingSlot JSON 数字解码为 float64，其余类型按错误描述处理.
func pingSlot(v any) (int64, string) {
	switch x := v.(type) {
	case float64:
		return int64(x), ""
	case string:
		return 0, x
	default:
		return 0, fmt.Sprint(x)
	}
}

// Users 调用 GET /users.
func (c *Client) Users(ctx context.Context) ([]types.User, error) {
	var resp types.UsersResponse
	if err := c.do(ctx, "users", http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// Images 调用 GET /images，userID 非空时按用户过滤.
func (c *Client) Images(ctx context.Context, userID *int64) ([]types.Asset, error) {
	path := "/images"
	if userID != nil {
		path += "?userid=" + strconv.FormatInt(*userID, 10)
	}

	var resp types.AssetsResponse
	if err := c.do(ctx, "images", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// Upload 调用 POST /image/:userid.
func (c *Client) Upload(ctx context.Context, userID int64, localName string, data []byte) (types.UploadResponse, error) {
	req := types.UploadRequest{LocalFilename: localName, Data: data}

	var resp types.UploadResponse
	err := c.do(ctx, "upload", http.MethodPost, "/image/"+strconv.FormatInt(userID, 10), req, &resp)

	return resp, err
}

// UploadFile 读取本地文件并上传，服务端保存的文件名为 path 的最后一段.
func (c *Client) UploadFile(ctx context.Context, userID int64, path string) (types.UploadResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.UploadResponse{}, fmt.Errorf("read %s: %w", path, err)
	}

	return c.Upload(ctx, userID, filepath.Base(path), data)
}

// Download 调用 GET /image/:assetid.
func (c *Client) Download(ctx context.Context, assetID int64) (types.DownloadResponse, error) {
	var resp types.DownloadResponse
	err := c.do(ctx, "download", http.MethodGet, "/image/"+strconv.FormatInt(assetID, 10), nil, &resp)

	return resp, err
}

// Labels 调用 GET /image_labels/:assetid.
func (c *Client) Labels(ctx context.Context, assetID int64) ([]types.Label, error) {
	var resp types.LabelsResponse
	if err := c.do(ctx, "labels", http.MethodGet, "/image_labels/"+strconv.FormatInt(assetID, 10), nil, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// Search 调用 GET /images_with_label/:label.
func (c *Client) Search(ctx context.Context, label string) ([]types.LabelMatch, error) {
	var resp types.SearchResponse
	if err := c.do(ctx, "search", http.MethodGet, "/images_with_label/"+url.PathEscape(label), nil, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// DeleteAll 调用 DELETE /images. 部分对象删除失败时返回 *HTTPError，
// 同时 resp.BlobsFailed 列出未能删除的对象键.
func (c *Client) DeleteAll(ctx context.Context) (types.DeleteResponse, error) {
	var resp types.DeleteResponse
	err := c.do(ctx, "deleteAll", http.MethodDelete, "/images", nil, &resp)

	return resp, err
}

// do 以重试策略发送请求并解码响应.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte

	if body != nil {
		b, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}

		payload = b
	}

	notify := retry.WithNotify(func(err error, wait time.Duration, attempt int) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("call", op).Int("attempt", attempt).Dur("wait", wait).Msg("request failed, retrying")
	})

	return retry.DoErr(ctx, c.policy, func(ctx context.Context) error {
		return c.roundTrip(ctx, op, method, path, payload, out)
	}, errs.IsNetwork, notify)
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := sonic.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}

		return nil
	case http.StatusBadRequest:
		return errs.Validation("client."+op, "%s", errorMessage(raw))
	case http.StatusInternalServerError:
		// DELETE /images 部分失败时 500 响应体仍是完整结果，尽量解码给调用方.
		_ = sonic.Unmarshal(raw, out)

		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	default:
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
}

// errorMessage 取响应体中的 message 字段，解析失败时返回原文.
func errorMessage(raw []byte) string {
	var e types.ErrorResponse
	if err := sonic.Unmarshal(raw, &e); err == nil && e.Message != "" {
		return e.Message
	}

	return strings.TrimSpace(string(raw))
}
