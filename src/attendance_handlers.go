package main

import (
	"eventpass/src/common"
	"eventpass/src/middlewares"
	"eventpass/src/types"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func attendanceHandlers(g *gin.RouterGroup, s *server) *gin.RouterGroup {
	attendance := g.Group("/attendance")
	attendance.
		POST("/scan", func(ctx *gin.Context) {
			var body types.ScanRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithBindError(ctx, err)
				return
			}
			res, err := s.verifier.Scan(ctx.Request.Context(), common.ScanInput{
				EventID: body.EventID,
				QRValue: body.QRValue,
				Scanner: ctx.GetString("scanner"),
			})
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, res)
		}).
		POST("/confirm", func(ctx *gin.Context) {
			var body types.ConfirmAttendanceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithBindError(ctx, err)
				return
			}
			res, err := s.verifier.Confirm(ctx.Request.Context(), body.RegistrationID, ctx.GetString("scanner"))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, res)
		}).
		POST("/revoke", func(ctx *gin.Context) {
			var body types.RevokeAttendanceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithBindError(ctx, err)
				return
			}
			if err := s.verifier.Revoke(ctx.Request.Context(), body.LogID, ctx.GetString("scanner")); err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": types.SCAN_SUCCESS})
		})

	attendance.POST("/mark-absent", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
		n, err := s.verifier.MarkAbsent(ctx.Request.Context(), time.Now().UTC())
		if err != nil {
			abortWithError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": types.SCAN_SUCCESS, "updated": n})
	})
	return attendance
}
