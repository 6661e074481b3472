package main

import (
	"cowork/src/controllers"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const MAX_WEBHOOK_BODY = int64(65536)

func stripeHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		GET("/webhook-status", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, app.webhooks.Status())
		}).
		POST("/webhook/stripe", func(ctx *gin.Context) {
			payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, MAX_WEBHOOK_BODY))
			if err != nil {
				log.Printf("Error reading request body: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			err = app.webhooks.HandleStripeEvent(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature"))
			if errors.Is(err, controllers.ErrInvalidSignature) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature", "code": "invalid_signature"})
				return
			}
			if err != nil {
				abortWithError(ctx, "Webhook", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"received": true})
		})
	return g
}
