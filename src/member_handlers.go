package main

import (
	"cowork/src/types"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func memberHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.POST("/member-hours", func(ctx *gin.Context) {
		var body types.MemberHoursRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			if strings.TrimSpace(body.Email) == "" {
				abortWithError(ctx, "MemberHours", types.MissingParameter("email"))
				return
			}
			abortWithError(ctx, "MemberHours", types.ValidationError(err.Error()))
			return
		}
		res, err := app.hours.MemberHours(ctx.Request.Context(), body.Email)
		if err != nil {
			abortWithError(ctx, "MemberHours", err)
			return
		}
		ctx.JSON(http.StatusOK, res)
	})
	return g
}
