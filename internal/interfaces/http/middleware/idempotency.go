package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/logger"
	"github.com/kitchenops/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replay"
)

// MaxIdempotencyKeyLength bounds client supplied keys
const MaxIdempotencyKeyLength = 255

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	// TTL is how long a completed response is replayed
	TTL    time.Duration
	Logger *zap.Logger
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a mutating request that carries
// an Idempotency-Key already seen for the same tenant and route.
// Only successful responses are stored; failed requests release the key so
// the client can retry. Requests without the header pass through untouched.
// Must run after JWTAuthMiddleware so keys are scoped per tenant.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeIdempotencyInvalid,
				"Idempotency-Key must be at most 255 characters",
				GetRequestID(c),
			))
			return
		}

		ctx := c.Request.Context()
		log := logger.Enrich(ctx, cfg.Logger)
		scoped := idempotencyScope(c) + ":" + key

		if raw, err := cfg.Store.Response(ctx, scoped); err != nil {
			log.Error("Failed to read idempotent response", zap.String("idempotency_key", key), zap.Error(err))
			c.Next()
			return
		} else if raw != nil {
			var stored storedResponse
			if err := json.Unmarshal(raw, &stored); err == nil {
				log.Info("Replaying idempotent response", zap.String("idempotency_key", key))
				c.Header(IdempotentReplayHeader, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
			log.Warn("Discarding unreadable idempotent response", zap.String("idempotency_key", key))
		}

		claimed, err := cfg.Store.Claim(ctx, scoped, cfg.TTL)
		if err != nil {
			log.Error("Failed to claim idempotency key", zap.String("idempotency_key", key), zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeIdempotencyInUse,
				"A request with this Idempotency-Key is still being processed",
				GetRequestID(c),
			))
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			if err := cfg.Store.Forget(ctx, scoped); err != nil {
				log.Error("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(err))
			}
			return
		}

		raw, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err == nil {
			err = cfg.Store.Complete(ctx, scoped, raw, cfg.TTL)
		}
		if err != nil {
			log.Error("Failed to store idempotent response", zap.String("idempotency_key", key), zap.Error(err))
		}
	}
}

func idempotencyScope(c *gin.Context) string {
	tenant := "-"
	if id, ok := GetTenantID(c); ok {
		tenant = id.String()
	}
	return tenant + ":" + c.Request.Method + " " + c.Request.URL.Path
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
