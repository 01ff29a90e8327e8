package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/scheduler"
)

// Healthz 进程存活检查.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": configs.AppVersion})
}

// Readyz 依赖就绪检查：对象存储与元数据库都可用时返回 200，否则 503 并给出各自状态.
func (h *AssetHandlers) Readyz() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := h.svc.Ping(c.Request.Context())

		status := http.StatusOK
		if !res.M.OK() || !res.N.OK() {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"object_store":   componentStatus(res.M.Err),
			"metadata_store": componentStatus(res.N.Err),
		})
	}
}

func componentStatus(errMsg string) gin.H {
	if errMsg != "" {
		return gin.H{"status": "unhealthy", "error": errMsg}
	}

	return gin.H{"status": "ok"}
}

// SchedulerJobs 返回定时任务状态.
func SchedulerJobs(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sched == nil {
			c.JSON(http.StatusOK, gin.H{"data": []scheduler.JobInfo{}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": sched.JobInfos()})
	}
}
