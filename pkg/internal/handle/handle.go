// Package handle 提供 HTTP 请求处理器的实现.
//
// 错误映射：errs.KindValidation 返回 400，其余错误返回 500，响应体均为 {"message": ...}.
package handle

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/rule"
)

// AssetService 处理器依赖的编排服务.
type AssetService interface {
	Ping(ctx context.Context) service.PingResult
	ListUsers(ctx context.Context) ([]model.User, error)
	ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error)
	Upload(ctx context.Context, userID int64, localName string, data []byte) (service.UploadResult, error)
	Download(ctx context.Context, assetID int64) (service.DownloadResult, error)
	GetLabels(ctx context.Context, assetID int64) ([]model.Label, error)
	SearchByLabel(ctx context.Context, pattern string) ([]model.Label, error)
	DeleteAll(ctx context.Context) (service.DeleteResult, error)
}

// AssetHandlers 图片资产相关的处理器.
type AssetHandlers struct {
	svc AssetService
}

// NewAssetHandlers 创建 AssetHandlers.
func NewAssetHandlers(svc AssetService) *AssetHandlers {
	return &AssetHandlers{svc: svc}
}

// respondError 按错误类别写入 400 或 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errs.IsValidation(err) {
		status = http.StatusBadRequest
	}

	_ = c.Error(err)

	l := log.Ctx(c.Request.Context())
	l.Warn().Err(err).Int("status", status).Str("route", c.FullPath()).Msg("request failed")

	c.JSON(status, types.ErrorResponse{Message: err.Error()})
}

// parseID 解析路径参数中的正整数编号.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err == nil {
		err = rule.ValidateVar(id, "assetid")
	}

	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: "invalid " + name + ": " + c.Param(name)})
		return 0, false
	}

	return id, true
}

// bindError 请求体读取或解析失败时写入 413 或 400.
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Message: "request body too large"})
		return
	}

	if verrs := rule.Errors(err); verrs != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: verrs.Error()})
		return
	}

	c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: err.Error()})
}
