package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/eventpipe/internal/consumer"
	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/producer"
	"github.com/Gunvolt24/eventpipe/internal/usecase"
	"github.com/Gunvolt24/eventpipe/pkg/httpx"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

type operation int

const (
	opPublish operation = iota
	opRead
	opConsumer
)

// statusFor — HTTP-код по классу ошибки.
// Неизвестный топик при публикации — ошибка конфигурации (500), при чтении — 404.
// Явная партиция вне диапазона при публикации — ошибка клиента (400).
func statusFor(op operation, err error) int {
	switch {
	case errors.Is(err, validate.ErrInvalidEvent),
		errors.Is(err, httpx.ErrBadParam),
		errors.Is(err, usecase.ErrEmptyTopic),
		errors.Is(err, domain.ErrInvalidOffset):
		return http.StatusBadRequest
	case errors.Is(err, consumer.ErrRunning):
		return http.StatusConflict
	case errors.Is(err, consumer.ErrUnknownConsumer):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownPartition) && op == opPublish:
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownTopic), errors.Is(err, domain.ErrUnknownPartition):
		if op == opPublish {
			return http.StatusInternalServerError
		}
		return http.StatusNotFound
	case errors.Is(err, producer.ErrProducerClosed), domain.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, op operation, err error) {
	code := statusFor(op, err)
	if code >= http.StatusInternalServerError {
		h.log.Errorf(c.Request.Context(), "%s %s failed status=%d err=%v", c.Request.Method, c.FullPath(), code, err)
	}
	c.JSON(code, gin.H{"error": err.Error(), "kind": domain.Classify(err).String()})
}
