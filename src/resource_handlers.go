package main

import (
	"eventpass/src/common"
	"eventpass/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func resourceHandlers(g *gin.RouterGroup, s *server) *gin.RouterGroup {
	g.POST("/resources/:id/bookings", func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			abortWithBindError(ctx, err)
			return
		}
		var body types.CreateBookingRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			abortWithBindError(ctx, err)
			return
		}
		booking, err := s.bookings.Request(ctx.Request.Context(), common.BookingInput{
			ResourceID:  params.ID,
			EventID:     body.EventID,
			RequestedBy: ctx.GetString("scanner"),
			StartDate:   body.StartDate,
			EndDate:     body.EndDate,
			StartTime:   body.StartTime,
			EndTime:     body.EndTime,
			Purpose:     body.Purpose,
		})
		if err != nil {
			abortWithError(ctx, err)
			return
		}
		ctx.JSON(http.StatusCreated, booking)
	})
	return g
}
