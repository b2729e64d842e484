package filter

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
)

const (
	ActionDrop = "drop"
	ActionKeep = "keep"
)

// RuleProcessor drops (or keeps only) the records matching an expr-lang rule.
// Rules see identity, title, body and link, e.g. `title startsWith "Ask HN"`.
type RuleProcessor struct {
	name    string
	config  config.FilterRule
	program *vm.Program
}

func NewRuleProcessor(cfg *config.FilterRule) (*RuleProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("filter rule config is required")
	}
	program, err := expr.Compile(cfg.Rule, expr.Env(recordEnv(core.Record{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter rule %q: %w", cfg.Name, err)
	}
	processor := &RuleProcessor{
		name:    cfg.Name,
		config:  *cfg,
		program: program,
	}
	if processor.config.Action == "" {
		processor.config.Action = ActionDrop
	}
	return processor, nil
}

func (p *RuleProcessor) Name() string {
	return p.name
}

func (p *RuleProcessor) Validate() error {
	if p.config.Name == "" || p.config.Rule == "" {
		return fmt.Errorf("rule name and expression are required")
	}
	if p.config.Action != ActionDrop && p.config.Action != ActionKeep {
		return fmt.Errorf("filter action must be %q or %q", ActionDrop, ActionKeep)
	}
	return nil
}

// Filter returns the records that survive the rule, in order. A record whose
// evaluation fails is kept and logged.
func (p *RuleProcessor) Filter(ctx context.Context, records []core.Record) ([]core.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := core.LoggerFromContext(ctx)
	kept := make([]core.Record, 0, len(records))

	for _, record := range records {
		result, err := expr.Run(p.program, recordEnv(record))
		if err != nil {
			logger.Warn("filter rule failed, keeping record", "filter", p.name, "identity", record.Identity, "error", err)
			kept = append(kept, record)
			continue
		}
		matched, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("filter rule %q did not return bool", p.name)
		}
		drop := matched == (p.config.Action == ActionDrop)
		if drop {
			logger.Debug("record filtered", "filter", p.name, "identity", record.Identity)
			continue
		}
		kept = append(kept, record)
	}

	return kept, nil
}

func recordEnv(record core.Record) map[string]interface{} {
	return map[string]interface{}{
		"identity": record.Identity,
		"title":    record.Title,
		"body":     record.Body,
		"link":     record.Link,
	}
}
