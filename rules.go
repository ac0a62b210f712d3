package sheetatlas

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

// ColumnRule declares quality expectations for one column, matched by name.
// Constraint is an expr-language expression returning bool over the
// environment {value, text, row}; Pattern is a regular expression the text
// form must match.
type ColumnRule struct {
	Column     string `yaml:"column"`
	Required   bool   `yaml:"required"`
	Unique     bool   `yaml:"unique"`
	Constraint string `yaml:"constraint"`
	Pattern    string `yaml:"pattern"`
}

// RuleSet is a collection of column rules loaded from YAML. Compiled
// constraint programs and patterns are cached per expression, so a set can
// be shared across sheets enriched in parallel. Use it by pointer; the
// caches make it non-copyable.
type RuleSet struct {
	Columns []ColumnRule `yaml:"columns"`

	programs sync.Map // constraint string -> *vm.Program
	patterns sync.Map // pattern string -> *regexp.Regexp
}

// ParseRules unmarshals a YAML rule document.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, rule := range rs.Columns {
		if strings.TrimSpace(rule.Column) == "" {
			return nil, fmt.Errorf("parse rules: rule %d has no column name", i)
		}
	}
	return &rs, nil
}

// LoadRules reads and parses a YAML rule file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	return rs, nil
}

// Rule returns the rule for a column name, matched case-insensitively, or
// nil when the set has none.
func (r *RuleSet) Rule(column string) *ColumnRule {
	if r == nil {
		return nil
	}
	for i := range r.Columns {
		if strings.EqualFold(r.Columns[i].Column, column) {
			return &r.Columns[i]
		}
	}
	return nil
}

// RuleIssue reports one invalid rule found by Validate.
type RuleIssue struct {
	Column  string
	Message string
}

// String formats the issue as `column "Amount": message`.
func (ri RuleIssue) String() string {
	return fmt.Sprintf("column %q: %s", ri.Column, ri.Message)
}

// Validate compiles every constraint and pattern up front and returns the
// problems found, so a bad rule file fails before any sheet is touched.
func (r *RuleSet) Validate() []RuleIssue {
	var issues []RuleIssue
	for _, rule := range r.Columns {
		if rule.Constraint != "" {
			if _, err := r.compileConstraint(rule.Constraint); err != nil {
				issues = append(issues, RuleIssue{
					Column:  rule.Column,
					Message: fmt.Sprintf("invalid constraint %q: %v", rule.Constraint, err),
				})
			}
		}
		if rule.Pattern != "" {
			if _, err := r.compilePattern(rule.Pattern); err != nil {
				issues = append(issues, RuleIssue{
					Column:  rule.Column,
					Message: fmt.Sprintf("invalid pattern %q: %v", rule.Pattern, err),
				})
			}
		}
	}
	return issues
}

// EvalConstraint runs a rule's constraint against one cell value. A nil
// result counts as false; a non-bool result is an error.
func (r *RuleSet) EvalConstraint(rule *ColumnRule, v Value, row int) (bool, error) {
	if rule.Constraint == "" {
		return true, nil
	}
	program, err := r.compileConstraint(rule.Constraint)
	if err != nil {
		return false, fmt.Errorf("compile constraint %q: %w", rule.Constraint, err)
	}
	env := map[string]any{
		"value": constraintValue(v),
		"text":  v.String(),
		"row":   row,
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate constraint %q: %w", rule.Constraint, err)
	}
	if result == nil {
		return false, nil
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("constraint %q evaluated to %T, expected bool", rule.Constraint, result)
	}
	return b, nil
}

// MatchPattern checks a cell's text form against the rule's pattern.
func (r *RuleSet) MatchPattern(rule *ColumnRule, text string) (bool, error) {
	if rule.Pattern == "" {
		return true, nil
	}
	re, err := r.compilePattern(rule.Pattern)
	if err != nil {
		return false, fmt.Errorf("compile pattern %q: %w", rule.Pattern, err)
	}
	return re.MatchString(text), nil
}

func (r *RuleSet) compileConstraint(constraint string) (*vm.Program, error) {
	if cached, ok := r.programs.Load(constraint); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(constraint, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	r.programs.Store(constraint, program)
	return program, nil
}

func (r *RuleSet) compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := r.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	r.patterns.Store(pattern, re)
	return re, nil
}

// constraintValue converts a cell value into the plain Go value exposed to
// constraints as "value".
func constraintValue(v Value) any {
	switch v.Kind() {
	case KindText:
		return v.AsText()
	case KindInteger:
		return v.AsInteger()
	case KindNumber:
		return v.AsNumber()
	case KindBoolean:
		return v.AsBoolean()
	case KindDateTime:
		return v.AsDateTime()
	default:
		return nil
	}
}
