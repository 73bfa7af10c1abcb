package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Skufu/nutricompare/internal/catalog"
	"github.com/Skufu/nutricompare/internal/compare"
	"github.com/Skufu/nutricompare/internal/fallback"
	"github.com/Skufu/nutricompare/internal/metrics"
	"github.com/Skufu/nutricompare/internal/patient"
	"github.com/Skufu/nutricompare/internal/render"
	"github.com/Skufu/nutricompare/internal/store"
)

type FormStore interface {
	PatientInfo() patient.PatientInfo
	Result() *patient.ComparisonResult
	IsLoading() bool
	Update(u patient.Update) (patient.PatientInfo, error)
	ToggleCondition(c patient.MedicalCondition) (patient.PatientInfo, error)
	TrySubmit(ctx context.Context, admit func() bool) (compare.Result, patient.ValidationErrors, error)
	Reset()
	Ping(ctx context.Context) error
}

const submitFailedMessage = "Failed to submit patient information. Please try again."

func newCompareLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func setupRouter(st FormStore, cache *render.Cache, limiter *rate.Limiter, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		requestID(),
		requestLogger(logger),
		gin.Recovery(),
		metrics.Middleware(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"storage": "unhealthy: " + err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": "ok"})
	})

	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")

	api.GET("/options", func(c *gin.Context) {
		c.JSON(http.StatusOK, catalog.Options())
	})

	api.GET("/patient", func(c *gin.Context) {
		c.JSON(http.StatusOK, patientView(st.PatientInfo(), st.IsLoading()))
	})

	api.PATCH("/patient", func(c *gin.Context) {
		var update patient.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		info, err := st.Update(update)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, patientView(info, st.IsLoading()))
	})

	api.POST("/patient/conditions/toggle", func(c *gin.Context) {
		var payload struct {
			Condition patient.MedicalCondition `json:"condition" binding:"required"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		info, err := st.ToggleCondition(payload.Condition)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, patientView(info, st.IsLoading()))
	})

	api.POST("/compare", func(c *gin.Context) {
		// The remote call runs to completion even if the client goes away.
		ctx := context.WithoutCancel(c.Request.Context())

		res, errs, err := st.TrySubmit(ctx, limiter.Allow)
		switch {
		case !errs.Empty():
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "validation_failed",
				"fields": errs,
			})
			return
		case errors.Is(err, store.ErrSubmitInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case errors.Is(err, store.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many comparisons, slow down"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": submitFailedMessage})
			return
		}

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"outcome":    res.Outcome,
		})
		if res.Outcome == compare.OutcomeConstructionFailure {
			entry.WithError(res.Err).Error("comparison failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": submitFailedMessage})
			return
		}
		entry.Info("comparison completed")
		c.JSON(http.StatusOK, gin.H{
			"outcome": res.Outcome,
			"result":  res.Comparison,
		})
	})

	api.GET("/results", func(c *gin.Context) {
		result := st.Result()
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no comparison yet"})
			return
		}
		c.JSON(http.StatusOK, resultView(result, cache))
	})

	api.GET("/results/:source/html", func(c *gin.Context) {
		result := st.Result()
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no comparison yet"})
			return
		}

		var text string
		switch c.Param("source") {
		case "chatgpt":
			text = result.ChatGPTResponse
		case "perplexity":
			text = result.PerplexityResponse
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown source"})
			return
		}

		html, err := render.HTML(text)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	})

	api.POST("/reset", func(c *gin.Context) {
		st.Reset()
		c.JSON(http.StatusOK, patientView(st.PatientInfo(), st.IsLoading()))
	})

	return router
}

func patientView(info patient.PatientInfo, loading bool) gin.H {
	view := gin.H{
		"patientInfo": info,
		"errors":      patient.Validate(info),
		"isLoading":   loading,
	}
	if info.BMI != nil {
		view["bmiCategory"] = catalog.BMICategory(*info.BMI)
	}
	return view
}

type renderedResponse struct {
	Raw    string         `json:"raw"`
	Blocks []render.Block `json:"blocks"`
}

func resultView(result *patient.ComparisonResult, cache *render.Cache) gin.H {
	return gin.H{
		"patientInfo": result.PatientInfo,
		"source":      result.Source,
		"fallback":    result.Source == patient.SourceFallback,
		"marker":      fallback.Marker,
		"createdAt":   result.CreatedAt,
		"chatGpt": renderedResponse{
			Raw:    result.ChatGPTResponse,
			Blocks: cache.Render(result.ChatGPTResponse),
		},
		"perplexity": renderedResponse{
			Raw:    result.PerplexityResponse,
			Blocks: cache.Render(result.PerplexityResponse),
		},
	}
}

const requestIDKey = "request_id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}).Debug("request handled")
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
