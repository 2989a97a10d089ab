package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// LLMTokens 按端点统计实际记账的令牌数
	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens recorded against caller budgets",
		},
		[]string{"endpoint"},
	)

	// LLMBudgetRejections 因令牌预算不足而拒绝的请求
	LLMBudgetRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_budget_rejections_total",
			Help: "Requests rejected because the caller exceeded the token budget",
		},
		[]string{"endpoint"},
	)

	// LLMFallbacks 未配置 key 时返回静态内容的次数
	LLMFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Responses served from static fallback content",
		},
		[]string{"endpoint"},
	)

	LLMDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of upstream chat completion calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint", "outcome"},
	)

	// VoiceFrameCounter 语音 websocket 帧计数，direction 为 in/out
	VoiceFrameCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_ws_frames_total",
			Help: "Frames exchanged on the voice tutor websocket",
		},
		[]string{"direction"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(LLMTokens)
		prometheus.MustRegister(LLMBudgetRejections)
		prometheus.MustRegister(LLMFallbacks)
		prometheus.MustRegister(LLMDuration)
		prometheus.MustRegister(VoiceFrameCounter)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
