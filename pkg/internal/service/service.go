// Package service 编排元数据库、对象存储与标签识别服务之间的多步流程.
//
// 每个流程按顺序执行，每一步对外部依赖的调用单独套用重试策略，
// 某一步失败不会重新执行之前已经成功的步骤.
package service

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/metrics"
	"github.com/yeisme/photovault/pkg/queue"
	"github.com/yeisme/photovault/pkg/retry"
	"github.com/yeisme/photovault/pkg/tracing"
)

// MetadataStore 元数据库（users、assets、labels 三张表）.
type MetadataStore interface {
	LookupUsernames(ctx context.Context, userID int64) ([]string, error)
	InsertAsset(ctx context.Context, userID int64, localName, bucketKey string) error
	AssetIDsByBucketKey(ctx context.Context, bucketKey string) ([]int64, error)
	InsertLabels(ctx context.Context, labels []model.Label) error
	GetAsset(ctx context.Context, assetID int64) (model.Asset, bool, error)
	AssetExists(ctx context.Context, assetID int64) (bool, error)
	ListLabels(ctx context.Context, assetID int64) ([]model.Label, error)
	SearchLabels(ctx context.Context, pattern string) ([]model.Label, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error)
	BucketKeys(ctx context.Context) ([]string, error)
	CountUsers(ctx context.Context) (int64, error)
	PurgeAssets(ctx context.Context) (int64, error)
}

// ObjectStore 单个桶内的对象存储.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// DeleteBatch 返回未能删除的键；不存在的键不算失败.
	DeleteBatch(ctx context.Context, keys []string) ([]string, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]model.BlobInfo, error)
}

// LabelDetector 标签识别服务.
type LabelDetector interface {
	Detect(ctx context.Context, ref model.BlobRef) ([]model.DetectedLabel, error)
}

// BlobCache 对象内容读穿缓存.
type BlobCache interface {
	GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error)
}

// Deps 服务依赖. Events 为空时不发布事件，Cache 为空时不缓存.
type Deps struct {
	Meta     MetadataStore
	Objects  ObjectStore
	Detector LabelDetector
	Events   message.Publisher
	Cache    BlobCache
}

// Options 可选配置.
type Options struct {
	// Producer 写入事件头的生产者名称，默认为应用名.
	Producer string
}

// AssetService 图片资产的编排服务. 不持有跨请求的可变状态，可并发使用.
type AssetService struct {
	meta     MetadataStore
	objects  ObjectStore
	detector LabelDetector
	events   message.Publisher
	cache    BlobCache
	policy   retry.Policy
	producer string
}

// New 创建 AssetService.
func New(deps Deps, policy retry.Policy, opts Options) *AssetService {
	producer := opts.Producer
	if producer == "" {
		producer = configs.AppName
	}

	return &AssetService{
		meta:     deps.Meta,
		objects:  deps.Objects,
		detector: deps.Detector,
		events:   deps.Events,
		cache:    deps.Cache,
		policy:   policy,
		producer: producer,
	}
}

// step 以重试策略执行一次外部调用，记录 span、耗时、重试次数，失败时带步骤名写日志.
func step[T any](ctx context.Context, s *AssetService, pipeline, name string, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracing.StartSpan(ctx, pipeline+"."+name)
	start := time.Now()

	logger := log.Ctx(ctx).With().Str("pipeline", pipeline).Str("step", name).Logger()

	v, err := retry.Do(ctx, s.policy, op, errs.IsTransient, retry.WithNotify(func(err error, wait time.Duration, attempt int) {
		metrics.StepRetries.WithLabelValues(name).Inc()
		logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("step failed, retrying")
	}))

	outcome := "ok"
	if err != nil {
		outcome = "error"

		logger.Error().Err(err).Msg("step failed")
	}

	metrics.StepDuration.WithLabelValues(pipeline, name, outcome).Observe(time.Since(start).Seconds())
	tracing.EndSpan(span, err)

	return v, err
}

// stepErr 是 step 的无返回值版本.
func stepErr(ctx context.Context, s *AssetService, pipeline, name string, op func(ctx context.Context) error) error {
	_, err := step(ctx, s, pipeline, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

// emit 尽力发布事件，失败只记录日志.
func (s *AssetService) emit(ctx context.Context, topic string, publish func(pub message.Publisher, opts ...func(*queue.EventHeader)) error) {
	if s.events == nil {
		return
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(s.producer)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	if err := publish(s.events, opts...); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}
