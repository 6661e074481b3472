package main

import (
	"cowork/src/middlewares"
	"cowork/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func calendarResultJSON(result types.CalendarResult) gin.H {
	return gin.H{
		"success": result.Created(),
		"result":  result,
	}
}

// calendarHandlers are diagnostics and answer 404 in production.
func calendarHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	debug := g.Group("", middlewares.DebugOnly(app.cfg))
	debug.
		GET("/debug-calendar", func(ctx *gin.Context) {
			var query types.DebugCalendarQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				abortWithError(ctx, "DebugCalendar", types.MissingParameter("action"))
				return
			}
			switch query.Action {
			case "test":
				ctx.JSON(http.StatusOK, calendarResultJSON(app.calendar.TestEvent(ctx.Request.Context())))
			case "config":
				ctx.JSON(http.StatusOK, gin.H{"config": app.calendar.ConfigStatus()})
			default:
				abortWithError(ctx, "DebugCalendar", types.ValidationError("action must be test or config"))
			}
		}).
		POST("/test-manual-booking", func(ctx *gin.Context) {
			var body types.ManualBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				abortWithError(ctx, "ManualBooking", types.ValidationError(err.Error()))
				return
			}
			booking, err := app.calendar.ManualBooking(&body)
			if err != nil {
				abortWithError(ctx, "ManualBooking", err)
				return
			}
			ctx.JSON(http.StatusOK, calendarResultJSON(app.calendar.CreateEvent(ctx.Request.Context(), booking)))
		})
	return g
}
