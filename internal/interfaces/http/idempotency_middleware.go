package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
)

// HeaderIdempotencyKey cabecera que identifica un reintento del mismo comando.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay se añade a las respuestas servidas desde el almacén.
const HeaderIdempotentReplay = "Idempotent-Replayed"

// IdempotencyStore lo implementa internal/infrastructure/redis.IdempotencyStore.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Key(scope, id string) string
}

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency devuelve la respuesta registrada cuando un POST/PUT se repite con el mismo
// Idempotency-Key. La clave se aísla por usuario, método y ruta; reutilizarla con otro body
// responde 422. Las respuestas 5xx no se registran para permitir el reintento.
// Sin store o sin cabecera la petición pasa sin cambios.
func Idempotency(store IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store == nil || (c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut) {
			return c.Next()
		}
		idemKey := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if idemKey == "" {
			return c.Next()
		}
		if len(idemKey) > 255 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
		}

		ctx := c.UserContext()
		log := log.Ctx(ctx)
		requestHash := hashBody(c.Body())
		key := store.Key(strings.Join([]string{GetUserID(c), c.Method(), c.Path()}, "|"), idemKey)

		stored, found, err := store.Get(ctx, key)
		if err != nil {
			log.Error().Err(err).Msg("consultar idempotencia")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar Idempotency-Key"})
		}
		if found {
			var rec idempotencyRecord
			if err := json.Unmarshal([]byte(stored), &rec); err != nil {
				log.Error().Err(err).Msg("decodificar registro de idempotencia")
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "registro de idempotencia inválido"})
			}
			if rec.RequestHash != requestHash {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_KEY_REUSED", Message: "Idempotency-Key reutilizada con otro body"})
			}
			body, _ := base64.StdEncoding.DecodeString(rec.Body)
			if rec.ContentType != "" {
				c.Set(fiber.HeaderContentType, rec.ContentType)
			}
			c.Set(HeaderIdempotentReplay, "true")
			return c.Status(rec.Status).Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		rec := idempotencyRecord{
			Status:      status,
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			ContentType: string(c.Response().Header.ContentType()),
			RequestHash: requestHash,
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			log.Error().Err(err).Msg("serializar registro de idempotencia")
			return nil
		}
		if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
			log.Error().Err(err).Msg("guardar registro de idempotencia")
		}
		return nil
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
