// internal/service/promotion/infrastructure/rule/cel_engine.go
package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"bazaar/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 CEL 实现。
// 优惠券上的资格表达式（例如 "eligible_subtotal >= 200.0 &&
// total_items >= 3"）在这里针对购物车事实求值。
// 典型的适配器：把第三方表达式引擎适配到我们自己的领域接口。
type CELRuleEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program // 已编译表达式的缓存
}

// NewCELRuleEngine 创建规则引擎并声明事实变量。
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("eligible_subtotal", cel.DoubleType),
		cel.Variable("total_items", cel.IntType),
		cel.Variable("vendor_ids", cel.ListType(cel.StringType)),
		cel.Variable("is_customer", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel environment: %w", err)
	}
	return &CELRuleEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Evaluate 实现 domain.RuleEngine 接口。
// 空规则视为无条件通过。表达式必须求值为布尔。
func (e *CELRuleEngine) Evaluate(rule string, fact domain.Fact) (bool, error) {
	if rule == "" {
		return true, nil
	}

	prg, err := e.program(rule)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"eligible_subtotal": fact.EligibleSubtotal,
		"total_items":       fact.TotalItems,
		"vendor_ids":        fact.VendorIDs,
		"is_customer":       fact.IsCustomer,
	})
	if err != nil {
		return false, fmt.Errorf("rule evaluation failed: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to a boolean", rule)
	}
	return result, nil
}

func (e *CELRuleEngine) program(rule string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid rule %q: %w", rule, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule program: %w", err)
	}

	e.mu.Lock()
	e.programs[rule] = prg
	e.mu.Unlock()
	return prg, nil
}
