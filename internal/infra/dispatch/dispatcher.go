// Package dispatch is the single entry point both transports drive:
// it validates enablement and arguments, applies declared defaults,
// and normalizes handler results and failures into the wire contract.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"adomcp/internal/domain"
	"adomcp/internal/infra/registry"
)

type Dispatcher struct {
	registry *registry.Registry
	metrics  domain.Metrics
	logger   *zap.Logger
}

func New(reg *registry.Registry, metrics domain.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	metrics.SetEnabledTools(reg.Len())
	return &Dispatcher{
		registry: reg,
		metrics:  metrics,
		logger:   logger.Named("dispatch"),
	}
}

// Invoke runs one tool call. Failures before the handler step perform
// no external action; the returned CallResult carries exactly one of
// value or error and raw handler failures never cross this boundary
// untyped.
func (d *Dispatcher) Invoke(ctx context.Context, req domain.CallRequest) domain.CallResult {
	start := time.Now()

	desc, ok := d.registry.Lookup(req.Tool)
	if !ok {
		return d.finish(req.Tool, "", start, domain.CallResult{
			Err: fmt.Errorf("%w: %q", domain.ErrUnknownTool, req.Tool),
		})
	}

	args, err := validateArguments(desc, req.Args)
	if err != nil {
		return d.finish(req.Tool, desc.Domain, start, domain.CallResult{Err: err})
	}

	if req.Credential.Empty() {
		return d.finish(req.Tool, desc.Domain, start, domain.CallResult{
			Err: fmt.Errorf("%w: no credential resolved for tool %q", domain.ErrMissingCredential, req.Tool),
		})
	}

	value, err := desc.Handler(ctx, args, req.Credential)
	if err != nil {
		if !errors.Is(err, domain.ErrBackend) && !errors.Is(err, domain.ErrInvalidArguments) {
			err = &domain.BackendError{Message: err.Error()}
		}
		return d.finish(req.Tool, desc.Domain, start, domain.CallResult{Err: err})
	}

	return d.finish(req.Tool, desc.Domain, start, domain.CallResult{Value: value})
}

// ListTools returns the enabled descriptors in catalog order, for
// discovery on either transport.
func (d *Dispatcher) ListTools() []*domain.ToolDescriptor {
	return d.registry.List()
}

// Summaries returns the discovery view used by the HTTP metadata
// endpoint.
func (d *Dispatcher) Summaries() []domain.ToolSummary {
	tools := d.registry.List()
	out := make([]domain.ToolSummary, 0, len(tools))
	for _, desc := range tools {
		out = append(out, domain.ToolSummary{
			Name:        desc.Name,
			Domain:      string(desc.Domain),
			Description: desc.Description,
		})
	}
	return out
}

func (d *Dispatcher) finish(tool string, dom domain.Domain, start time.Time, result domain.CallResult) domain.CallResult {
	status := StatusOf(result.Err)
	duration := time.Since(start)
	d.metrics.ObserveToolCall(tool, dom, status, duration)

	if result.Err != nil {
		d.logger.Debug("tool call failed",
			zap.String("tool", tool),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(result.Err),
		)
	} else {
		d.logger.Debug("tool call succeeded",
			zap.String("tool", tool),
			zap.Duration("duration", duration),
		)
	}
	return result
}

// StatusOf maps a dispatcher error to its call status label. Transports
// use the same mapping to pick HTTP status classes.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return domain.CallStatusSuccess
	case errors.Is(err, domain.ErrUnknownTool):
		return domain.CallStatusUnknownTool
	case errors.Is(err, domain.ErrInvalidArguments):
		return domain.CallStatusInvalidArguments
	case errors.Is(err, domain.ErrMissingCredential):
		return domain.CallStatusMissingCredential
	case errors.Is(err, domain.ErrBackend):
		return domain.CallStatusBackendError
	default:
		return domain.CallStatusError
	}
}

// validateArguments checks presence and type of every declared
// parameter, applies defaults for omitted optional parameters, and
// rejects arguments the schema does not declare.
func validateArguments(desc *domain.ToolDescriptor, args map[string]any) (map[string]any, error) {
	declared := make(map[string]domain.Param, len(desc.Params))
	for _, p := range desc.Params {
		declared[p.Name] = p
	}

	var unknown []string
	for name := range args {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown parameter(s) %s for tool %q",
			domain.ErrInvalidArguments, strings.Join(unknown, ", "), desc.Name)
	}

	validated := make(map[string]any, len(desc.Params))
	var missing []string
	for _, p := range desc.Params {
		raw, present := args[p.Name]
		if !present || raw == nil {
			if p.Required {
				missing = append(missing, p.Name)
				continue
			}
			if p.Default != nil {
				validated[p.Name] = p.Default
			}
			continue
		}
		value, err := coerce(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", domain.ErrInvalidArguments, p.Name, err)
		}
		validated[p.Name] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required parameter(s) %s for tool %q",
			domain.ErrInvalidArguments, strings.Join(missing, ", "), desc.Name)
	}
	return validated, nil
}

func coerce(p domain.Param, raw any) (any, error) {
	switch p.Type {
	case domain.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case domain.TypeInteger:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int(v), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", raw)
		}
	case domain.TypeNumber:
		switch v := raw.(type) {
		case int:
			return float64(v), nil
		case float64:
			return v, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", raw)
		}
	case domain.TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", raw)
		}
		return b, nil
	case domain.TypeArray:
		a, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", raw)
		}
		return a, nil
	case domain.TypeObject:
		o, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", raw)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", p.Type)
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveToolCall(string, domain.Domain, string, time.Duration) {}
func (noopMetrics) SetEnabledTools(int)                                          {}
