package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvkit/transfer/internal/domain"
	"github.com/dvkit/transfer/internal/format"
)

// ResolverFunc maps a source lookup value to a target-environment value,
// typically a Guid.
type ResolverFunc func(domain.Value) (domain.Value, error)

// Applier executes transforms against raw records. Named resolvers are
// injected at construction so Apply stays free of I/O.
type Applier struct {
	resolvers map[string]ResolverFunc
}

func NewApplier(resolvers map[string]ResolverFunc) *Applier {
	if resolvers == nil {
		resolvers = map[string]ResolverFunc{}
	}
	return &Applier{resolvers: resolvers}
}

// Apply produces the target field value for one record.
func (a *Applier) Apply(t Transform, record map[string]any) (domain.Value, error) {
	if err := t.Validate(); err != nil {
		return domain.Null(), err
	}
	switch t.Type {
	case TypeCopy:
		return a.applyCopy(t.Copy, record)
	case TypeConstant:
		return resolveDynamic(t.Constant.Value)
	case TypeConditional:
		return a.applyConditional(t.Conditional, record)
	case TypeValueMap:
		return a.applyValueMap(t.ValueMap, record)
	case TypeFormat:
		rendered, err := format.Evaluate(t.Format.Template, record, t.Format.NullHandling)
		if err != nil {
			return domain.Null(), fmt.Errorf("format %q: %w", t.Format.Template.Source, err)
		}
		return domain.String(rendered), nil
	case TypeReplace:
		return a.applyReplace(t.Replace, record)
	default:
		return domain.Null(), fmt.Errorf("unknown transform type %q", t.Type)
	}
}

func (a *Applier) applyCopy(cfg *CopyTransform, record map[string]any) (domain.Value, error) {
	value := domain.ResolvePath(record, cfg.SourcePath)
	if cfg.Resolver == "" {
		return value, nil
	}
	resolve, ok := a.resolvers[cfg.Resolver]
	if !ok {
		return domain.Null(), fmt.Errorf("unknown resolver %q", cfg.Resolver)
	}
	if value.IsNull() {
		return domain.Null(), nil
	}
	resolved, err := resolve(value)
	if err != nil {
		return domain.Null(), fmt.Errorf("resolver %q: %w", cfg.Resolver, err)
	}
	return resolved, nil
}

func (a *Applier) applyConditional(cfg *ConditionalTransform, record map[string]any) (domain.Value, error) {
	actual := domain.ResolvePath(record, cfg.SourcePath)
	if cfg.Condition.Evaluate(actual) {
		return resolveDynamic(cfg.Then)
	}
	return resolveDynamic(cfg.Else)
}

func (a *Applier) applyValueMap(cfg *ValueMapTransform, record map[string]any) (domain.Value, error) {
	actual := domain.ResolvePath(record, cfg.SourcePath)
	for _, entry := range cfg.Entries {
		if actual.Equal(entry.From) {
			return resolveDynamic(entry.To)
		}
	}
	switch cfg.Fallback.Type {
	case domain.FallbackDefault:
		if dyn, ok := cfg.Fallback.Default.AsDynamic(); ok && dyn == domain.DynamicSource {
			return actual, nil
		}
		return resolveDynamic(cfg.Fallback.Default)
	case domain.FallbackPassThrough:
		return actual, nil
	case domain.FallbackNull:
		return domain.Null(), nil
	default:
		return domain.Null(), fmt.Errorf("no mapping found for value: %s", actual)
	}
}

func (a *Applier) applyReplace(cfg *ReplaceTransform, record map[string]any) (domain.Value, error) {
	actual := domain.ResolvePath(record, cfg.SourcePath)
	if actual.IsNull() {
		return domain.Null(), nil
	}
	current := actual.String()
	for _, rule := range cfg.Replacements {
		if rule.IsRegex {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return domain.Null(), fmt.Errorf("invalid regex %q: %w", rule.Pattern, err)
			}
			current = re.ReplaceAllString(current, rule.Replacement)
			continue
		}
		current = strings.ReplaceAll(current, rule.Pattern, rule.Replacement)
	}
	return domain.String(current), nil
}

// resolveDynamic materialises dynamic placeholders. $source is only legal
// as a value map fallback default, which applyValueMap handles before
// calling here.
func resolveDynamic(v domain.Value) (domain.Value, error) {
	dyn, ok := v.AsDynamic()
	if !ok {
		return v, nil
	}
	switch dyn {
	case domain.DynamicNow:
		return domain.DateTime(time.Now().UTC()), nil
	case domain.DynamicNewGuid:
		return domain.Guid(uuid.New()), nil
	case domain.DynamicSource:
		return domain.Null(), fmt.Errorf("$source can only be used as a value map fallback")
	default:
		return domain.Null(), fmt.Errorf("unknown dynamic placeholder %q", dyn)
	}
}
