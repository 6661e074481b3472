package main

import (
	"cowork/src/middlewares"
	"cowork/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func checkoutHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.POST(
		"/checkout-session",
		middlewares.RateLimit(app.redis, "checkout-session", app.cfg.RateLimit),
		func(ctx *gin.Context) {
			var body types.CreateCheckoutSessionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithError(ctx, "Checkout", types.ValidationError(err.Error()))
				return
			}
			res, err := app.checkout.CreateCheckoutSession(ctx.Request.Context(), &body)
			if err != nil {
				abortWithError(ctx, "Checkout", err)
				return
			}
			ctx.JSON(http.StatusOK, res)
		})
	return g
}
