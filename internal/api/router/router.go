package router

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"cv-screener-go/internal/api/handler"
	"cv-screener-go/internal/config"
)

// RegisterRoutes 注册API路由
func RegisterRoutes(h *server.Hertz, cfg *config.Config, candidateHandler *handler.CandidateHandler) {
	api := h.Group("/api/v1")

	// 配置了API key时启用鉴权，健康检查豁免
	if cfg.Server.APIKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == cfg.Server.APIKey, nil
			}),
			keyauth.WithFilter(func(ctx context.Context, c *app.RequestContext) bool {
				return strings.HasSuffix(string(c.Path()), "/health")
			}),
		))
	}

	api.POST("/candidates/upload", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		positionApplied := ctx.PostForm("position_applied")
		contentType := fileHeader.Header.Get("Content-Type")

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := candidateHandler.HandleUpload(c, file, fileHeader.Size,
			fileHeader.Filename, contentType, positionApplied)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/candidates", func(c context.Context, ctx *app.RequestContext) {
		resp, err := candidateHandler.HandleList(c, handler.ListRequest{
			Status: ctx.Query("status"),
			Search: ctx.Query("search"),
			Skills: ctx.Query("skills"),
		})
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.PUT("/candidates/:id", func(c context.Context, ctx *app.RequestContext) {
		var req handler.UpdateRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}
		if err := candidateHandler.HandleUpdate(c, ctx.Param("id"), req); err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api.DELETE("/candidates/:id", func(c context.Context, ctx *app.RequestContext) {
		if err := candidateHandler.HandleDelete(c, ctx.Param("id")); err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api.GET("/candidates/:id/cv", func(c context.Context, ctx *app.RequestContext) {
		resp, err := candidateHandler.HandleDownloadURL(c, ctx.Param("id"))
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/candidates/reprocess", func(c context.Context, ctx *app.RequestContext) {
		resp, err := candidateHandler.HandleReprocess(c, ctx.Query("candidate_id"))
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// statusForError 业务错误到HTTP状态码的映射
func statusForError(err error) int {
	switch {
	case errors.Is(err, handler.ErrCandidateNotFound), errors.Is(err, handler.ErrNoCVFile):
		return consts.StatusNotFound
	case errors.Is(err, handler.ErrUnsupportedFileType), errors.Is(err, handler.ErrInvalidStatus):
		return consts.StatusBadRequest
	case errors.Is(err, handler.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	default:
		return consts.StatusInternalServerError
	}
}
