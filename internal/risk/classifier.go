package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/havenmind/counselor-platform/internal/llm"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

const defaultAssessTimeout = 30 * time.Second

const generalPrompt = `You are a safety classifier for a mental-health support platform.
Assess the risk present in the user's message given the conversation context.
Consider self-harm, harm to others, abuse, substance abuse, and acute distress.

Respond with JSON only, no prose:
{"risk_level": "low|medium|high|critical", "risk_categories": ["..."], "confidence_score": 0.0, "reasoning": "...", "requires_human_review": false, "auto_response_blocked": false, "crisis_resources_needed": false}

Known categories: suicide, self_harm, violence, substance_abuse, abuse, mental_health_crisis.`

const contentFilterPrompt = `You are a content-safety classifier for a mental-health support platform.
Assess the user's message for sexual content, graphic violence, and self-harm
content that must not receive an automated reply. Be strict about sexual content
involving minors and explicit violence.

Respond with JSON only, no prose:
{"risk_level": "low|medium|high|critical", "risk_categories": ["..."], "confidence_score": 0.0, "reasoning": "...", "requires_human_review": false, "auto_response_blocked": false, "crisis_resources_needed": false}

Known categories: suicide, self_harm, violence, substance_abuse, abuse, mental_health_crisis.`

const crisisDetectionPrompt = `You are a crisis-detection classifier for a mental-health support platform.
Assess whether the user's message indicates an immediate crisis: active suicidal
ideation, a specific plan or means, a stated timeframe, or imminent danger to
self or others. Immediacy and specificity raise the risk level.

Respond with JSON only, no prose:
{"risk_level": "low|medium|high|critical", "risk_categories": ["..."], "confidence_score": 0.0, "reasoning": "...", "requires_human_review": false, "auto_response_blocked": false, "crisis_resources_needed": false}

Known categories: suicide, self_harm, violence, substance_abuse, abuse, mental_health_crisis.`

// Classifier scores messages using an injected LLM client, falling back to a
// local keyword scan whenever the remote call fails or returns unparseable
// output. Assess never returns an error.
type Classifier struct {
	client  llm.Client
	timeout time.Duration
	logger  *logging.Logger
}

// NewClassifier creates a classifier around the given LLM client.
func NewClassifier(client llm.Client, timeout time.Duration, logger *logging.Logger) *Classifier {
	if timeout <= 0 {
		timeout = defaultAssessTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Assess classifies content in the given conversation context. The fast path
// skips the remote call entirely for ordinary small talk.
func (c *Classifier) Assess(ctx context.Context, content, convContext string, analysisType AnalysisType) Verdict {
	if isSmallTalk(content) {
		return Verdict{
			Level:      LevelLow,
			Categories: []string{},
			Confidence: 0.95,
			Reasoning:  "normal conversation pattern, no assessment needed",
			Source:     SourceFastPath,
		}
	}

	if c.client == nil {
		return c.fallback(content, "no classifier client configured")
	}

	verdict, err := c.assessRemote(ctx, content, convContext, analysisType)
	if err != nil {
		c.logger.Warn("remote risk classification failed, using keyword fallback",
			"error", err.Error(),
			"analysis_type", string(analysisType),
		)
		return c.fallback(content, err.Error())
	}
	return verdict
}

func (c *Classifier) assessRemote(ctx context.Context, content, convContext string, analysisType AnalysisType) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var userMsg strings.Builder
	if strings.TrimSpace(convContext) != "" {
		userMsg.WriteString("Conversation context:\n")
		userMsg.WriteString(convContext)
		userMsg.WriteString("\n\n")
	}
	userMsg.WriteString("Message to assess:\n")
	userMsg.WriteString(content)

	resp, err := c.client.Complete(ctx, llm.Request{
		System:      []string{promptFor(analysisType)},
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: userMsg.String()}},
		MaxTokens:   400,
		Temperature: 0,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("risk: classifier call failed: %w", err)
	}

	var raw rawVerdict
	payload := extractJSON(resp.Text)
	if payload == "" {
		return Verdict{}, fmt.Errorf("risk: no JSON object in classifier response")
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Verdict{}, fmt.Errorf("risk: unparseable classifier verdict: %w", err)
	}

	v := raw.normalize()
	v.Source = SourceRemote
	return v, nil
}

// fallback re-checks the small-talk heuristic then scans the fixed keyword
// lists. Confidence is fixed at 0.6 (0.9 for the small-talk case).
func (c *Classifier) fallback(content, cause string) Verdict {
	if isSmallTalk(content) {
		return Verdict{
			Level:      LevelLow,
			Categories: []string{},
			Confidence: 0.9,
			Reasoning:  "keyword fallback: normal conversation (" + cause + ")",
			Source:     SourceFallback,
		}
	}

	level, categories := scanKeywords(content)
	if categories == nil {
		categories = []string{}
	}
	elevated := level == LevelHigh || level == LevelCritical
	return Verdict{
		Level:                 level,
		Categories:            categories,
		Confidence:            0.6,
		Reasoning:             "keyword fallback used: " + cause,
		RequiresHumanReview:   elevated,
		AutoResponseBlocked:   level == LevelCritical,
		CrisisResourcesNeeded: elevated,
		Source:                SourceFallback,
	}
}

func promptFor(analysisType AnalysisType) string {
	switch analysisType {
	case AnalysisContentFilter:
		return contentFilterPrompt
	case AnalysisCrisisDetection:
		return crisisDetectionPrompt
	default:
		return generalPrompt
	}
}

// extractJSON pulls the first JSON object out of a model response, tolerating
// a fenced code block wrapper.
func extractJSON(text string) string {
	content := strings.TrimSpace(text)
	if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+3:]
		content = strings.TrimPrefix(content, "json")
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
