package handle

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/rule"
)

// Ping 返回对象数与用户数，任一依赖不可用时对应字段为错误描述.
//
//	@Summary	健康检查
//	@Produce	json
//	@Success	200	{object}	types.PingResponse
//	@Router		/ping [get]
func (h *AssetHandlers) Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := h.svc.Ping(c.Request.Context())

		c.JSON(http.StatusOK, types.PingResponse{
			Message: types.MessageSuccess,
			M:       pingValue(res.M),
			N:       pingValue(res.N),
		})
	}
}

func pingValue(s service.PingSlot) any {
	if !s.OK() {
		return s.Err
	}

	return s.Count
}

// Users 列出全部用户.
//
//	@Summary	用户列表
//	@Produce	json
//	@Success	200	{object}	types.UsersResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/users [get]
func (h *AssetHandlers) Users() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.svc.ListUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		data := make([]types.User, 0, len(users))
		for _, u := range users {
			data = append(data, types.User{
				UserID:     u.UserID,
				Username:   u.Username,
				GivenName:  u.GivenName,
				FamilyName: u.FamilyName,
			})
		}

		c.JSON(http.StatusOK, types.UsersResponse{Message: types.MessageSuccess, Data: data})
	}
}

// Images 列出图片，可用 ?userid= 过滤.
//
//	@Summary	图片列表
//	@Produce	json
//	@Param		userid	query		int	false	"只返回该用户的图片"
//	@Success	200		{object}	types.AssetsResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Router		/images [get]
func (h *AssetHandlers) Images() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID *int64

		if raw, ok := c.GetQuery("userid"); ok {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: "invalid userid: " + raw})
				return
			}

			userID = &id
		}

		assets, err := h.svc.ListAssets(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}

		data := make([]types.Asset, 0, len(assets))
		for _, a := range assets {
			data = append(data, types.Asset{
				AssetID:   a.AssetID,
				UserID:    a.UserID,
				LocalName: a.LocalName,
				BucketKey: a.BucketKey,
			})
		}

		c.JSON(http.StatusOK, types.AssetsResponse{Message: types.MessageSuccess, Data: data})
	}
}

// Upload 上传一张图片. 标签识别失败时仍返回 200，label_status 为 failed.
//
//	@Summary	上传图片
//	@Accept		json
//	@Produce	json
//	@Param		userid	path		int					true	"用户编号"
//	@Param		body	body		types.UploadRequest	true	"文件名与 base64 内容"
//	@Success	200		{object}	types.UploadResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Router		/image/{userid} [post]
func (h *AssetHandlers) Upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseID(c, "userid")
		if !ok {
			return
		}

		var req types.UploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		if err := rule.ValidateStruct(&req); err != nil {
			bindError(c, err)
			return
		}

		res, err := h.svc.Upload(c.Request.Context(), userID, req.LocalFilename, req.Data)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.UploadResponse{
			Message:     types.MessageSuccess,
			AssetID:     res.AssetID,
			BucketKey:   res.BucketKey,
			LabelStatus: string(res.LabelStatus),
			LabelCount:  res.LabelCount,
			LabelError:  res.LabelError,
		})
	}
}

// Download 下载一张图片.
//
//	@Summary	下载图片
//	@Produce	json
//	@Param		assetid	path		int	true	"资产编号"
//	@Param		If-None-Match	header	string	false	"上次响应的 ETag"
//	@Success	200		{object}	types.DownloadResponse
//	@Success	304
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Router		/image/{assetid} [get]
func (h *AssetHandlers) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := parseID(c, "assetid")
		if !ok {
			return
		}

		res, err := h.svc.Download(c.Request.Context(), assetID)
		if err != nil {
			respondError(c, err)
			return
		}

		// 同一 bucketkey 的内容不会改变，按内容哈希生成 ETag 即可支持条件请求.
		etag := fmt.Sprintf("\"%x\"", xxhash.Sum64(res.Data))
		c.Header("ETag", etag)

		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}

		c.JSON(http.StatusOK, types.DownloadResponse{
			Message:       types.MessageSuccess,
			UserID:        res.Asset.UserID,
			LocalFilename: res.Asset.LocalName,
			BucketKey:     res.Asset.BucketKey,
			Data:          res.Data,
		})
	}
}

// Labels 返回一张图片的标签，按标签文本排序.
//
//	@Summary	图片标签
//	@Produce	json
//	@Param		assetid	path		int	true	"资产编号"
//	@Success	200		{object}	types.LabelsResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Router		/image_labels/{assetid} [get]
func (h *AssetHandlers) Labels() gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := parseID(c, "assetid")
		if !ok {
			return
		}

		labels, err := h.svc.GetLabels(c.Request.Context(), assetID)
		if err != nil {
			respondError(c, err)
			return
		}

		data := make([]types.Label, 0, len(labels))
		for _, l := range labels {
			data = append(data, types.Label{Label: l.Label, Confidence: l.Confidence})
		}

		c.JSON(http.StatusOK, types.LabelsResponse{Message: types.MessageSuccess, Data: data})
	}
}

// Search 按标签子串查找图片（不区分大小写）.
//
//	@Summary	按标签搜索
//	@Produce	json
//	@Param		label	path		string	true	"标签子串"
//	@Success	200		{object}	types.SearchResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Router		/images_with_label/{label} [get]
func (h *AssetHandlers) Search() gin.HandlerFunc {
	return func(c *gin.Context) {
		labels, err := h.svc.SearchByLabel(c.Request.Context(), c.Param("label"))
		if err != nil {
			respondError(c, err)
			return
		}

		data := make([]types.LabelMatch, 0, len(labels))
		for _, l := range labels {
			data = append(data, types.LabelMatch{AssetID: l.AssetID, Label: l.Label, Confidence: l.Confidence})
		}

		c.JSON(http.StatusOK, types.SearchResponse{Message: types.MessageSuccess, Data: data})
	}
}

// DeleteAll 删除全部图片. 对象删除失败时元数据已清空，返回 500 并附带未删除的对象键.
//
//	@Summary	删除全部图片
//	@Produce	json
//	@Success	200	{object}	types.DeleteResponse
//	@Failure	500	{object}	types.DeleteResponse
//	@Router		/images [delete]
func (h *AssetHandlers) DeleteAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.svc.DeleteAll(c.Request.Context())

		resp := types.DeleteResponse{
			Message:      types.MessageSuccess,
			Assets:       res.Assets,
			BlobsDeleted: res.BlobsDeleted,
			BlobsFailed:  res.BlobsFailed,
		}

		if err != nil {
			if len(res.BlobsFailed) == 0 {
				respondError(c, err)
				return
			}

			_ = c.Error(err)
			resp.Message = err.Error()

			c.JSON(http.StatusInternalServerError, resp)

			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
