package classifier

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"phishguard/internal/models"
)

// Result is the outcome of classifying one message. The shape is
// identical in model and fallback mode; callers cannot tell them apart.
type Result struct {
	IsPhishing       bool
	RiskScore        float64
	ConfidenceLevel  string
	ModelVersion     string
	PredictionTimeMs int64
}

// Classifier scores normalized message text for phishing likelihood.
type Classifier interface {
	Classify(text string) Result
}

// artifact is the on-disk trained model: a bag-of-words logistic
// regression exported as JSON {model_version, bias, weights}.
type artifact struct {
	ModelVersion string             `json:"model_version"`
	Bias         float64            `json:"bias"`
	Weights      map[string]float64 `json:"weights"`
}

// Model wraps the loaded artifact. It is loaded once at startup and
// read-only afterwards, so it is safe for concurrent use without locks.
type Model struct {
	version  string
	bias     float64
	weights  map[string]float64
	fallback bool
}

// Load reads the model artifact from path. When the artifact is missing
// or unreadable the returned Model operates in deterministic fallback
// mode; that is logged here and never surfaced to callers as an error.
func Load(path, version string, logger *zap.Logger) *Model {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Model artifact not loadable, using fallback heuristic",
			zap.String("path", path),
			zap.Error(err))
		return &Model{version: version, fallback: true}
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		logger.Warn("Model artifact is malformed, using fallback heuristic",
			zap.String("path", path),
			zap.Error(err))
		return &Model{version: version, fallback: true}
	}

	if a.ModelVersion != "" {
		version = a.ModelVersion
	}
	logger.Info("Model artifact loaded",
		zap.String("path", path),
		zap.String("version", version),
		zap.Int("terms", len(a.Weights)))
	return &Model{version: version, bias: a.Bias, weights: a.Weights}
}

// Classify scores the message and maps the score onto the fixed
// confidence bands: <0.4 LOW, <0.7 MEDIUM, >=0.7 HIGH. The verdict is
// phishing at score >= 0.5.
func (m *Model) Classify(text string) Result {
	start := time.Now()

	var score float64
	if m.fallback {
		score = heuristicScore(text)
	} else {
		score = m.modelScore(text)
	}

	return Result{
		IsPhishing:       score >= 0.5,
		RiskScore:        score,
		ConfidenceLevel:  ConfidenceFor(score),
		ModelVersion:     m.version,
		PredictionTimeMs: time.Since(start).Milliseconds(),
	}
}

// ConfidenceFor maps a risk score onto its confidence tier.
func ConfidenceFor(score float64) string {
	switch {
	case score < 0.4:
		return models.ConfidenceLow
	case score < 0.7:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

func (m *Model) modelScore(text string) float64 {
	z := m.bias
	for _, tok := range tokenize(text) {
		z += m.weights[tok]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Lexical signals for fallback mode. Phrases weigh more than single
// keywords; the lists follow the usual phishing tells (urgency,
// credential harvesting, money bait).
var (
	highRiskSignals = []string{
		"verify your account",
		"click here",
		"confirm your identity",
		"suspended",
		"urgent",
		"password",
		"social security",
		"wire transfer",
		"you have won",
		"lottery",
		"prize",
	}
	mediumRiskSignals = []string{
		"immediately",
		"act now",
		"limited time",
		"account",
		"bank",
		"login",
		"http://",
		"https://",
	}
)

// heuristicScore derives a deterministic score in [0.02, 0.98] from
// lexical signals alone, so repeated calls with the same input always
// agree and the rest of the pipeline is exercised identically.
func heuristicScore(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.1
	for _, sig := range highRiskSignals {
		if strings.Contains(lower, sig) {
			score += 0.2
		}
	}
	for _, sig := range mediumRiskSignals {
		if strings.Contains(lower, sig) {
			score += 0.1
		}
	}

	// Shouting is a weak extra signal.
	if upperRatio(text) > 0.3 && len(text) > 10 {
		score += 0.05
	}

	return math.Min(0.98, math.Max(0.02, score))
}

func upperRatio(text string) float64 {
	var letters, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
