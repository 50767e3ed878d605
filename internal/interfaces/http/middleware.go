package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Envois-api/internal/application/audit"
)

const (
	HeaderRequestID = "X-Request-Id"
	localRequestID  = "request_id"
	localLogger     = "logger"
)

// RequestContext asigna el id de petición, un logger con ese id y los datos de la petición
// que la auditoría lee del contexto.
func RequestContext(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := utils.CopyString(c.Get(HeaderRequestID))
		if rid == "" || len(rid) > 64 {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)
		c.Locals(localRequestID, rid)
		c.Locals(localLogger, log.With().Str("request_id", rid).Logger())

		// fiber reutiliza los buffers de la petición; la auditoría guarda copias.
		ctx := audit.WithRequest(c.UserContext(), audit.Request{
			Path:   utils.CopyString(c.Path()),
			Method: utils.CopyString(c.Method()),
			IP:     utils.CopyString(c.IP()),
		})
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// RequestLogger registra método, ruta, estado, latencia y usuario de cada petición.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		l := logger(c)
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user", GetUsername(c)).
			Msg("petición")
		return err
	}
}

// logger devuelve el logger de la petición, o uno nulo fuera de RequestContext.
func logger(c *fiber.Ctx) *zerolog.Logger {
	if l, ok := c.Locals(localLogger).(zerolog.Logger); ok {
		return &l
	}
	nop := zerolog.Nop()
	return &nop
}
