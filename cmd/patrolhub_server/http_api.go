package main

import (
	"log/slog"
	"runtime/pprof"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patrolhub/patrolhub/internal/model"
	"github.com/patrolhub/patrolhub/internal/wshandler"
	"github.com/patrolhub/patrolhub/pkg/log"
)

type HttpApi struct {
	f    *fiber.App
	addr string
}

func NewHttpApi(app *App, addr string) *HttpApi {
	api := &HttpApi{addr: addr}

	api.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "http", DoMetrics: true, LogErrorsOnly: true}))

	api.f.Get("/api/unit", getUnitsHandler(app))
	api.f.Get("/api/unit/:callsign/track", getUnitTrackHandler(app))
	api.f.Post("/api/unit", postUnitHandler(app))
	api.f.Get("/api/sos", getSOSHandler(app))
	api.f.Get("/api/stats", getStatsHandler(app))

	api.f.Get("/ws", getWsHandler(app))

	api.f.Get("/stack", getStackHandler())
	api.f.Get("/metrics", getMetricsHandler())

	return api
}

func (api *HttpApi) Address() string {
	return api.addr
}

func (api *HttpApi) Listen() error {
	return api.f.Listen(api.addr)
}

func getUnitsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		q := app.dbm.UnitQuery()

		if ctx.QueryBool("online") {
			q.Online(true)
		}

		units := q.Get()

		res := make([]*model.WebUnit, 0, len(units))
		for _, u := range units {
			res = append(res, u.ToWeb().WithPosition(app.tracker.LastPosition(u.ID)))
		}

		return ctx.JSON(res)
	}
}

func getUnitTrackHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		unit := app.dbm.UnitQuery().Callsign(ctx.Params("callsign")).One()
		if unit == nil {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		limit := ctx.QueryInt("limit", app.config.TrackLimit())
		if limit <= 0 {
			limit = app.config.TrackLimit()
		}

		if limit > app.config.TrackMaxLimit() {
			limit = app.config.TrackMaxLimit()
		}

		track, err := app.dbm.QueryPositions(ctx.UserContext(), unit.ID, time.Time{}, limit)
		if err != nil {
			return err
		}

		return ctx.JSON(track)
	}
}

func postUnitHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var p model.JoinPayload

		if err := ctx.BodyParser(&p); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request"})
		}

		if p.Callsign == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "callsign required"})
		}

		unit, err := app.dbm.UpsertUnit(ctx.UserContext(), p.Callsign, p.Name)
		if err != nil {
			return err
		}

		return ctx.JSON(unit.ToWeb())
	}
}

func getSOSHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		q := app.dbm.SOSQuery()

		if ctx.QueryBool("active") {
			q.Status(model.SOS_ACTIVE)
		}

		return ctx.JSON(q.Get())
	}
}

func getStatsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		snap, err := app.tracker.Stats()
		if err != nil {
			return err
		}

		return ctx.JSON(snap)
	}
}

func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		h := wshandler.NewHandler(app.logger, name, ws, app.tracker, app.config.WsQueueSize())

		app.logger.Debug("ws listener connected", slog.String("name", name))
		app.tracker.Connect(h)
		h.Listen()
		app.logger.Debug("ws listener disconnected", slog.String("name", name))
	})
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}
