package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/httpx"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

const (
	defaultFetchMax = 100
	maxFetchMax     = 1000
)

type Handler struct {
	service ports.EventService
	log     ports.Logger
	timeout time.Duration // таймаут чтения (fetch, topics); публикация ждёт по своему таймауту
}

func NewHandler(service ports.EventService, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{service: service, log: log, timeout: timeout}
}

// NewRouter — gin-роутер со всеми ручками; otelServiceName != "" включает otelgin.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "route not found"}) })
	r.NoMethod(func(c *gin.Context) { c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"}) })
	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	r.POST("/events/publish/:message", h.publishMessage)
	r.POST("/topics/:topic/records", h.publishRecord)
	r.GET("/topics", h.listTopics)
	r.GET("/topics/:topic/partitions/:partition/records", h.fetchRecords)

	r.GET("/consumers", h.listConsumers)
	r.POST("/consumers/:group/:topic/:partition/resume", h.resumeConsumer)

	return r
}

// publishMessage — текст из пути публикуется в топик по умолчанию.
func (h *Handler) publishMessage(c *gin.Context) {
	msg := c.Param("message")
	h.publish(c, domain.Event{Value: []byte(msg)})
}

// publishRecord — публикация JSON-тела {key, value, partition, encoding} в топик из пути.
func (h *Handler) publishRecord(c *gin.Context) {
	var body validate.EventPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	ev, err := body.Event()
	if err != nil {
		h.fail(c, opPublish, err)
		return
	}
	ev.Topic = c.Param("topic")
	h.publish(c, ev)
}

func (h *Handler) publish(c *gin.Context, ev domain.Event) {
	res, err := h.service.Publish(c.Request.Context(), ev)
	if err != nil {
		h.fail(c, opPublish, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listTopics(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	topics, err := h.service.Topics(ctx)
	if err != nil {
		h.fail(c, opRead, err)
		return
	}
	c.JSON(http.StatusOK, topics)
}

func (h *Handler) fetchRecords(c *gin.Context) {
	partition, err := httpx.ParamInt(c, "partition")
	if err != nil {
		h.fail(c, opRead, err)
		return
	}
	from, limit, err := httpx.ParseFetchWindow(c, defaultFetchMax, maxFetchMax)
	if err != nil {
		h.fail(c, opRead, err)
		return
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	req := domain.FetchRequest{Topic: c.Param("topic"), Partition: partition, FromOffset: from, MaxRecords: limit}
	entries, err := h.service.Fetch(ctx, req)
	if err != nil {
		h.fail(c, opRead, err)
		return
	}

	out := make([]RecordView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newRecordView(e))
	}
	c.JSON(http.StatusOK, FetchResponse{Topic: req.Topic, Partition: partition, From: from, Records: out})
}

func (h *Handler) listConsumers(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ConsumerStatus(c.Request.Context()))
}

type resumeBody struct {
	Offset *int64 `json:"offset"`
}

func (h *Handler) resumeConsumer(c *gin.Context) {
	partition, err := httpx.ParamInt(c, "partition")
	if err != nil {
		h.fail(c, opConsumer, err)
		return
	}

	var body resumeBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
			return
		}
	}
	if body.Offset != nil && *body.Offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be >= 0"})
		return
	}

	req := domain.ResumeRequest{
		Group:     c.Param("group"),
		Topic:     c.Param("topic"),
		Partition: partition,
		Offset:    body.Offset,
	}
	if err := h.service.ResumeConsumer(c.Request.Context(), req); err != nil {
		h.fail(c, opConsumer, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "resuming"})
}

// healthz — 503, если какой-то консьюмер остановлен.
func (h *Handler) healthz(c *gin.Context) {
	if h.service.Healthy() {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	stopped := make([]domain.ConsumerStatus, 0)
	for _, st := range h.service.ConsumerStatus(c.Request.Context()) {
		if st.Stopped() {
			stopped = append(stopped, st)
		}
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "stopped": stopped})
}

func (h *Handler) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}
