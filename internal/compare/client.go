package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/Skufu/nutricompare/internal/fallback"
	"github.com/Skufu/nutricompare/internal/metrics"
	"github.com/Skufu/nutricompare/internal/patient"
)

// EndpointPath is appended to the configured base URL.
const EndpointPath = "/nutrition-recommendation"

var (
	ErrUnexpectedStatus  = errors.New("unexpected status from recommendation service")
	ErrMalformedResponse = errors.New("malformed recommendation response")
)

type Config struct {
	BaseURL string
	// Timeout of zero leaves the transport defaults in charge.
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type Outcome string

const (
	OutcomeSuccess             Outcome = "success"
	OutcomeFallback            Outcome = "fallback"
	OutcomeConstructionFailure Outcome = "construction_failure"
)

// Result is what a submission produces. Comparison is nil only for
// OutcomeConstructionFailure. Err holds the remote cause for a fallback.
type Result struct {
	Outcome    Outcome
	Comparison *patient.ComparisonResult
	Err        error
}

type request struct {
	PatientInfo patient.PatientInfo `json:"patientInfo"`
}

// Pointers tell a missing field apart from an empty answer.
type response struct {
	ChatGPTResponse    *string `json:"chatGptResponse"`
	PerplexityResponse *string `json:"perplexityResponse"`
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	generate   func(patient.PatientInfo) (string, string)
	now        func() time.Time
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerCooldown == 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	c := &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + EndpointPath,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		generate:   fallback.Pair,
		now:        time.Now,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "recommendation-service",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		// A caller giving up says nothing about the service's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return c
}

// Fetch performs the single POST. It never retries.
func (c *Client) Fetch(ctx context.Context, p patient.PatientInfo) (chatGPT, perplexity string, err error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, p)
	})
	if err != nil {
		return "", "", err
	}
	resp := out.(response)
	return *resp.ChatGPTResponse, *resp.PerplexityResponse, nil
}

func (c *Client) post(ctx context.Context, p patient.PatientInfo) (response, error) {
	body, err := json.Marshal(request{PatientInfo: p})
	if err != nil {
		return response{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	metrics.RecordRemoteDuration(time.Since(start))
	if err != nil {
		return response{}, fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return response{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	var decoded response
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.ChatGPTResponse == nil || decoded.PerplexityResponse == nil {
		return response{}, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}
	return decoded, nil
}

// Compare runs one best-effort submission. Remote failures of any kind are
// swallowed into fallback responses; the caller only inspects the Result.
func (c *Client) Compare(ctx context.Context, p patient.PatientInfo) Result {
	snapshot := p.Clone()

	chatGPT, perplexity, err := c.Fetch(ctx, snapshot)
	if err == nil {
		metrics.RecordSubmission(string(OutcomeSuccess))
		return Result{
			Outcome: OutcomeSuccess,
			Comparison: &patient.ComparisonResult{
				PatientInfo:        snapshot,
				ChatGPTResponse:    chatGPT,
				PerplexityResponse: perplexity,
				Source:             patient.SourceRemote,
				CreatedAt:          c.now().UTC(),
			},
		}
	}

	c.logger.WithError(err).Warn("error submitting for comparison, using fallback responses")
	res := c.fallback(snapshot, err)
	metrics.RecordSubmission(string(res.Outcome))
	return res
}

// A panic while building the fallback pair is reported as
// OutcomeConstructionFailure.
func (c *Client) fallback(p patient.PatientInfo, cause error) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("panic", r).Error("fallback response construction failed")
			res = Result{
				Outcome: OutcomeConstructionFailure,
				Err:     fmt.Errorf("build fallback responses: %v", r),
			}
		}
	}()

	chatGPT, perplexity := c.generate(p)
	return Result{
		Outcome: OutcomeFallback,
		Comparison: &patient.ComparisonResult{
			PatientInfo:        p,
			ChatGPTResponse:    chatGPT,
			PerplexityResponse: perplexity,
			Source:             patient.SourceFallback,
			CreatedAt:          c.now().UTC(),
		},
		Err: cause,
	}
}
