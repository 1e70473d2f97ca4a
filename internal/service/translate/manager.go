package translate

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/util"
)

// ErrDisabled is returned when no provider API key is configured. Translation
// then degrades to a no-op and source text stays in place.
var ErrDisabled = stderrors.New("translation disabled: no provider API key configured")

// ModelManager routes generation through Gemini first and falls back to
// OpenAI when enabled. A shared circuit breaker guards both upstreams.
// Without any API key the manager is constructed in disabled mode and every
// Generate call reports ErrDisabled.
type ModelManager struct {
	primary        *GeminiProvider
	fallback       *OpenAIProvider
	enableFallback bool
	circuitBreaker *util.CircuitBreaker
	logger         *zap.Logger
}

type ModelManagerConfig struct {
	GeminiAPIKey   string
	OpenAIAPIKey   string
	GeminiModel    string
	OpenAIModel    string
	EnableFallback bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	geminiModel := cfg.GeminiModel
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	openaiModel := cfg.OpenAIModel
	if openaiModel == "" {
		openaiModel = "gpt-4.1-mini"
	}

	mm := &ModelManager{logger: logger}

	if cfg.GeminiAPIKey != "" {
		geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		mm.primary = NewGeminiProvider(geminiClient, geminiModel, logger)
	} else {
		logger.Warn("No Gemini API key configured")
	}

	if cfg.OpenAIAPIKey != "" {
		mm.fallback = NewOpenAIProvider(cfg.OpenAIAPIKey, openaiModel, logger)
		logger.Info("OpenAI fallback enabled", zap.String("model", openaiModel))
	} else {
		logger.Info("OpenAI fallback disabled (no API key)")
	}

	// Without Gemini the OpenAI client serves as the sole provider.
	mm.enableFallback = mm.fallback != nil && (cfg.EnableFallback || mm.primary == nil)

	if !mm.Enabled() {
		logger.Warn("No translation provider configured, translation degrades to a no-op")
	}

	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)

	return mm, nil
}

// Enabled reports whether at least one provider is usable.
func (mm *ModelManager) Enabled() bool {
	return mm.primary != nil || mm.enableFallback
}

// Generate tries the primary provider, then the fallback when configured.
// Service-level failures feed the circuit breaker.
func (mm *ModelManager) Generate(ctx context.Context, prompt string) (ProviderResult, error) {
	if !mm.Enabled() {
		return ProviderResult{}, ErrDisabled
	}

	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		nextRetry := "unknown"
		if status.NextRetryTime != nil {
			nextRetry = status.NextRetryTime.Format("15:04:05")
		}

		mm.logger.Error("Translation service unavailable (Circuit OPEN)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)

		return ProviderResult{}, fmt.Errorf("translation upstream unavailable, retry after %s", nextRetry)
	}

	var primaryErr error
	if mm.primary != nil {
		result, err := mm.primary.Generate(ctx, prompt)
		if err == nil {
			mm.circuitBreaker.RecordSuccess()
			return result, nil
		}
		primaryErr = err
	}

	if mm.enableFallback && mm.fallback != nil {
		result, fallbackErr := mm.fallback.Generate(ctx, prompt)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return result, nil
		}

		if mm.isServiceFailure(primaryErr) || mm.isServiceFailure(fallbackErr) {
			timeout := constants.CircuitBreakerConfig.ResetTimeout
			if mm.isRateLimitError(primaryErr) || mm.isRateLimitError(fallbackErr) {
				timeout = constants.CircuitBreakerConfig.RateLimitTimeout
			}
			mm.circuitBreaker.RecordFailure(timeout)
		}
		return ProviderResult{}, fmt.Errorf("all translation providers failed: %w", fallbackErr)
	}

	if mm.isServiceFailure(primaryErr) {
		timeout := constants.CircuitBreakerConfig.ResetTimeout
		if mm.isRateLimitError(primaryErr) {
			timeout = constants.CircuitBreakerConfig.RateLimitTimeout
		}
		mm.circuitBreaker.RecordFailure(timeout)
	}
	return ProviderResult{}, primaryErr
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health Check: Testing translation providers...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	primaryOK := false
	if mm.primary != nil {
		primaryOK = mm.primary.Ping(ctx)
	}

	fallbackOK := false
	if mm.enableFallback && mm.fallback != nil {
		fallbackOK = mm.fallback.Ping(ctx)
	}

	isHealthy := primaryOK || fallbackOK

	mm.logger.Info("Health Check: Result",
		zap.Bool("gemini", primaryOK),
		zap.Bool("openai", fallbackOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

func (mm *ModelManager) isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}

	if mm.isRateLimitError(err) {
		return true
	}

	statusRegex := regexp.MustCompile(`\b(5\d{2})\b`)
	if statusRegex.MatchString(msg) {
		return true
	}

	geminiCodeRegex := regexp.MustCompile(`"code":(\d{3})`)
	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code >= 500 && code < 600
		}
	}

	openaiCodeRegex := regexp.MustCompile(`^(\d{3})\s`)
	if matches := openaiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code >= 500 && code < 600
		}
	}

	return false
}

func (mm *ModelManager) isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	geminiCodeRegex := regexp.MustCompile(`"code":(\d{3})`)
	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code == 429
		}
	}

	openaiCodeRegex := regexp.MustCompile(`^(\d{3})\s`)
	if matches := openaiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code == 429
		}
	}

	return false
}
