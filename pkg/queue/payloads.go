package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// AssetRef 标识一张图片在元数据库与对象存储中的位置.
type AssetRef struct {
	AssetID   int64  `json:"assetid"`
	UserID    int64  `json:"userid"`
	LocalName string `json:"local_filename"`
	Bucket    string `json:"bucket"`
	BucketKey string `json:"bucket_key"`
}

// AssetStoredPayload pv.asset.stored 负载.
type AssetStoredPayload struct {
	Asset       AssetRef `json:"asset"`
	Size        int64    `json:"size"`
	ContentType string   `json:"content_type,omitempty"`
}

// LabelScore 标签与置信度.
type LabelScore struct {
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

// AssetLabeledPayload pv.asset.labeled 负载.
type AssetLabeledPayload struct {
	Asset  AssetRef     `json:"asset"`
	Labels []LabelScore `json:"labels"`
}

// AssetLabelFailedPayload pv.asset.label.failed 负载.
type AssetLabelFailedPayload struct {
	Asset AssetRef `json:"asset"`
	Step  string   `json:"step"`
	Error string   `json:"error"`
}

// AssetsPurgedPayload pv.assets.purged 负载.
type AssetsPurgedPayload struct {
	Assets       int64    `json:"assets"`
	BlobsDeleted int      `json:"blobs_deleted"`
	BlobsFailed  []string `json:"blobs_failed,omitempty"`
}

// OrphansSweptPayload pv.orphans.swept 负载.
type OrphansSweptPayload struct {
	Scanned int      `json:"scanned"`
	Deleted []string `json:"deleted,omitempty"`
	Failed  []string `json:"failed,omitempty"`
}
