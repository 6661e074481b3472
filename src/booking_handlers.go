package main

import (
	"cowork/src/middlewares"
	"cowork/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func bookingHandlers(g *gin.RouterGroup, app *App) *gin.RouterGroup {
	g.
		GET("/booking-success", func(ctx *gin.Context) {
			var query types.BookingSuccessQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				abortWithError(ctx, "BookingSuccess", types.ValidationError(err.Error()))
				return
			}
			booking, err := app.bookings.ResolveBookingSuccess(ctx.Request.Context(), query.SessionID)
			if err != nil {
				abortWithError(ctx, "BookingSuccess", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"booking": booking})
		}).
		GET("/rooms", func(ctx *gin.Context) {
			rooms, err := app.bookings.ListRooms(ctx.Request.Context())
			if err != nil {
				abortWithError(ctx, "Rooms", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rooms, "count": len(rooms)})
		}).
		POST(
			"/room-booking-session",
			middlewares.RateLimit(app.redis, "room-booking-session", app.cfg.RateLimit),
			func(ctx *gin.Context) {
				var body types.CreateRoomBookingRequestBody
				if err := ctx.ShouldBindJSON(&body); err != nil {
					abortWithError(ctx, "RoomBooking", types.ValidationError(err.Error()))
					return
				}
				res, err := app.bookings.CreateRoomBooking(ctx.Request.Context(), &body)
				if err != nil {
					abortWithError(ctx, "RoomBooking", err)
					return
				}
				ctx.JSON(http.StatusOK, res)
			})
	return g
}
