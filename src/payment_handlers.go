package main

import (
	"eventpass/src/common"
	"eventpass/src/types"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup, s *server) *gin.RouterGroup {
	g.
		POST("/events/:id/orders", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				abortWithBindError(ctx, err)
				return
			}
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithBindError(ctx, err)
				return
			}
			res, err := s.reconciler.CreateOrder(ctx.Request.Context(), common.OrderInput{
				EventID: params.ID,
				Registrant: common.Registrant{
					Name:       body.Name,
					Email:      body.Email,
					ExternalID: body.ExternalID,
				},
			})
			if err != nil {
				log.Printf("[orders] event %d: %s\n", params.ID, err.Error())
				abortWithError(ctx, err)
				return
			}
			status := http.StatusCreated
			if res.TicketCode != "" {
				status = http.StatusOK
			}
			ctx.JSON(status, res)
		}).
		POST("/payments/confirm", func(ctx *gin.Context) {
			var body types.ConfirmPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithBindError(ctx, err)
				return
			}
			res, err := s.reconciler.ConfirmPayment(ctx.Request.Context(), common.ConfirmInput{
				OrderID:   body.OrderID,
				PaymentID: body.PaymentID,
				Signature: body.Signature,
			})
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, res)
		}).
		POST("/webhook/payments", func(ctx *gin.Context) {
			payload, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				log.Printf("Error reading request body: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			res, err := s.reconciler.HandleWebhook(ctx.Request.Context(), payload, ctx.GetHeader(s.gateway.SignatureHeader()))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, res)
		})
	return g
}
