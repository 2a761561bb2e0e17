package filtering

import (
	"fmt"
	"strings"

	"wahook/internal/config"
	"wahook/pkg/cel"
	"wahook/pkg/models"
)

// Engine decides whether an inbound event qualifies for forwarding. It holds
// no mutable state after construction and is safe for concurrent use.
type Engine struct {
	enabled           bool
	skipOwnMessages   bool
	skipGroupMessages bool
	allowedSenders    map[string]struct{}
	keywords          []string
	expression        *cel.Filter
}

func NewEngine(cfg config.WebhookConfig) (*Engine, error) {
	e := &Engine{
		enabled:           cfg.Enabled,
		skipOwnMessages:   cfg.Filters.SkipOwnMessages,
		skipGroupMessages: cfg.Filters.SkipGroupMessages,
	}

	if len(cfg.Filters.AllowedSenders) > 0 {
		e.allowedSenders = make(map[string]struct{}, len(cfg.Filters.AllowedSenders))
		for _, s := range cfg.Filters.AllowedSenders {
			e.allowedSenders[s] = struct{}{}
		}
	}

	for _, kw := range cfg.Filters.RequiredKeywords {
		e.keywords = append(e.keywords, strings.ToLower(kw))
	}

	if expr := strings.TrimSpace(cfg.Filters.Expression); expr != "" {
		evaluator, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		f, err := evaluator.CompileFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook.filters.expression: %w", err)
		}
		e.expression = f
	}

	return e, nil
}

func (e *Engine) ShouldForward(sender, body string, meta models.EventMeta) bool {
	return e.Decide(sender, body, meta).Forward
}

// Decide applies the rules in order and stops at the first one that fails.
func (e *Engine) Decide(sender, body string, meta models.EventMeta) Decision {
	if !e.enabled {
		return skip(ReasonDisabled)
	}

	if e.skipOwnMessages && meta.IsFromMe {
		return skip(ReasonOwnMessage)
	}

	if e.skipGroupMessages && meta.ChatType == models.ChatTypeGroup {
		return skip(ReasonGroupMessage)
	}

	if e.allowedSenders != nil {
		if _, ok := e.allowedSenders[sender]; !ok {
			return skip(ReasonSenderNotAllow)
		}
	}

	if len(e.keywords) > 0 && !containsAny(strings.ToLower(body), e.keywords) {
		return skip(ReasonNoKeyword)
	}

	if e.expression != nil {
		ok, err := e.expression.Evaluate(sender, body, meta)
		if err != nil || !ok {
			return skip(ReasonExpression)
		}
	}

	return Decision{Forward: true, Reason: ReasonForward}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func skip(reason Reason) Decision {
	return Decision{Forward: false, Reason: reason}
}
