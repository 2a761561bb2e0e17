package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"wahook/pkg/models"
)

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("sender", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("message_id", cel.StringType),
		cel.Variable("chat_type", cel.StringType),
		cel.Variable("chat_name", cel.StringType),
		cel.Variable("message_type", cel.StringType),
		cel.Variable("has_media", cel.BoolType),
		cel.Variable("is_from_me", cel.BoolType),
		cel.Variable("timestamp", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// Filter is a compiled boolean expression over an inbound event.
type Filter struct {
	program cel.Program
}

func (e *Evaluator) CompileFilter(expression string) (*Filter, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Filter{program: program}, nil
}

func (f *Filter) Evaluate(sender, body string, meta models.EventMeta) (bool, error) {
	vars := map[string]interface{}{
		"sender":       sender,
		"body":         body,
		"message_id":   meta.MessageID,
		"chat_type":    string(meta.ChatType),
		"chat_name":    meta.ChatName,
		"message_type": meta.MessageType,
		"has_media":    meta.HasMedia,
		"is_from_me":   meta.IsFromMe,
		"timestamp":    meta.Timestamp,
	}

	result, _, err := f.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
