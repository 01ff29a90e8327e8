// Package s3 是 photovault 的对象存储客户端，基于 minio-go，兼容 AWS S3 与 MinIO.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// ErrNotFound 对象不存在.
var ErrNotFound = errors.New("object not found")

// Client 包装 MinIO 客户端，所有操作都作用于同一个桶.
type Client struct {
	*minio.Client
	bucket string
}

// New 初始化 MinIO 客户端，若配置允许且 bucket 不存在则创建.
func New(ctx context.Context, cfg configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	if cfg.CreateBucket {
		exists, err := cli.BucketExists(ctx, cfg.BucketName)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
		}

		if !exists {
			if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
			}

			nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
		}
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName}, nil
}

// Bucket 返回客户端使用的桶名.
func (c *Client) Bucket() string {
	return c.bucket
}

// Put 上传对象，内容类型根据数据嗅探.
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	_, err := c.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimetype.Detect(data).String(),
	})

	return wrap("put", err)
}

// Get 下载对象的全部内容.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrap("get", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, wrap("get", err)
	}

	return data, nil
}

// DeleteBatch 批量删除对象，返回删除失败的键以及第一个失败原因.
// 对象不存在不视为失败.
func (c *Client) DeleteBatch(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}

	close(objects)

	var (
		failed   []string
		firstErr error
	)

	for rerr := range c.RemoveObjects(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		if minio.ToErrorResponse(rerr.Err).Code == "NoSuchKey" {
			continue
		}

		failed = append(failed, rerr.ObjectName)
		if firstErr == nil {
			firstErr = rerr.Err
		}
	}

	if firstErr == nil && ctx.Err() != nil {
		return keys, ctx.Err()
	}

	return failed, wrap("deleteBatch", firstErr)
}

// List 列出桶中的全部对象.
func (c *Client) List(ctx context.Context) ([]model.BlobInfo, error) {
	var out []model.BlobInfo

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, wrap("list", obj.Err)
		}

		out = append(out, model.BlobInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}

	return out, nil
}

// Count 返回桶中对象数量.
func (c *Client) Count(ctx context.Context) (int64, error) {
	var n int64

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return 0, wrap("count", obj.Err)
		}

		n++
	}

	return n, nil
}

// IsTransient 判断对象存储错误是否为暂时性故障：5xx、限流、请求超时以及网络错误.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
		return true
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return errs.IsNetwork(err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return &errs.Error{Kind: errs.KindInternal, Op: "s3." + op, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}

	if IsTransient(err) {
		return errs.Transient("s3."+op, err)
	}

	return &errs.Error{Kind: errs.KindInternal, Op: "s3." + op, Err: err}
}
