// Package types 定义 HTTP 接口的请求与响应结构，服务端与命令行客户端共用.
//
// 二进制内容（data 字段）以标准 base64 编码在 JSON 中传输.
package types

// MessageSuccess 成功响应的 message 字段.
const MessageSuccess = "success"

// ErrorResponse 失败响应，400 表示请求有误，500 表示服务端错误.
type ErrorResponse struct {
	Message string `json:"message"`
}

// PingResponse GET /ping. M 为桶中对象数，N 为用户数；
// 对应依赖不可用时为错误描述字符串.
type PingResponse struct {
	Message string `json:"message"`
	M       any    `json:"M"`
	N       any    `json:"N"`
}

// User 用户.
type User struct {
	UserID     int64  `json:"userid"`
	Username   string `json:"username"`
	GivenName  string `json:"givenname"`
	FamilyName string `json:"familyname"`
}

// UsersResponse GET /users.
type UsersResponse struct {
	Message string `json:"message"`
	Data    []User `json:"data"`
}

// Asset 图片资产.
type Asset struct {
	AssetID   int64  `json:"assetid"`
	UserID    int64  `json:"userid"`
	LocalName string `json:"localname"`
	BucketKey string `json:"bucketkey"`
}

// AssetsResponse GET /images.
type AssetsResponse struct {
	Message string  `json:"message"`
	Data    []Asset `json:"data"`
}

// UploadRequest POST /image/:userid.
type UploadRequest struct {
	LocalFilename string `json:"local_filename" rule:"required,localname"`
	Data          []byte `json:"data"`
}

// UploadResponse POST /image/:userid. LabelStatus 为 failed 时图片已保存但没有标签.
type UploadResponse struct {
	Message     string `json:"message"`
	AssetID     int64  `json:"assetid"`
	BucketKey   string `json:"bucket_key,omitempty"`
	LabelStatus string `json:"label_status"`
	LabelCount  int    `json:"label_count"`
	LabelError  string `json:"label_error,omitempty"`
}

// DownloadResponse GET /image/:assetid.
type DownloadResponse struct {
	Message       string `json:"message"`
	UserID        int64  `json:"user_id"`
	LocalFilename string `json:"local_filename"`
	BucketKey     string `json:"bucket_key"`
	Data          []byte `json:"data"`
}

// Label 一张图片的标签.
type Label struct {
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

// LabelsResponse GET /image_labels/:assetid.
type LabelsResponse struct {
	Message string  `json:"message"`
	Data    []Label `json:"data"`
}

// LabelMatch 标签搜索结果.
type LabelMatch struct {
	AssetID    int64  `json:"assetid"`
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

// SearchResponse GET /images_with_label/:label.
type SearchResponse struct {
	Message string       `json:"message"`
	Data    []LabelMatch `json:"data"`
}

// DeleteResponse DELETE /images.
type DeleteResponse struct {
	Message      string   `json:"message"`
	Assets       int64    `json:"assets"`
	BlobsDeleted int      `json:"blobs_deleted"`
	BlobsFailed  []string `json:"blobs_failed,omitempty"`
}
