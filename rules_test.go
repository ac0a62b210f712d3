package sheetatlas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersRuleYAML = `
columns:
  - column: Order ID
    required: true
    unique: true
    pattern: "^ORD-[0-9]+$"
  - column: Amount
    required: true
    constraint: "value >= 0"
`

func TestParseRules_YAMLDocument(t *testing.T) {
	rs, err := ParseRules([]byte(ordersRuleYAML))
	require.NoError(t, err)
	require.Len(t, rs.Columns, 2)

	assert.Equal(t, "Order ID", rs.Columns[0].Column)
	assert.True(t, rs.Columns[0].Required)
	assert.True(t, rs.Columns[0].Unique)
	assert.Equal(t, "^ORD-[0-9]+$", rs.Columns[0].Pattern)

	assert.Equal(t, "Amount", rs.Columns[1].Column)
	assert.Equal(t, "value >= 0", rs.Columns[1].Constraint)
	assert.False(t, rs.Columns[1].Unique)
}

func TestParseRules_Rejections(t *testing.T) {
	_, err := ParseRules([]byte("columns:\n  - required: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no column name")

	_, err = ParseRules([]byte("columns: [unclosed"))
	assert.Error(t, err)
}

func TestRuleSet_RuleLookupIsCaseInsensitive(t *testing.T) {
	rs, err := ParseRules([]byte(ordersRuleYAML))
	require.NoError(t, err)

	rule := rs.Rule("order id")
	require.NotNil(t, rule)
	assert.Equal(t, "Order ID", rule.Column)

	assert.Nil(t, rs.Rule("Quantity"))

	var none *RuleSet
	assert.Nil(t, none.Rule("Amount"))
}

func TestRuleSet_ValidateCompilesUpFront(t *testing.T) {
	rs, err := ParseRules([]byte(ordersRuleYAML))
	require.NoError(t, err)
	assert.Empty(t, rs.Validate())

	bad, err := ParseRules([]byte(`
columns:
  - column: Amount
    constraint: "value >="
  - column: Code
    pattern: "["
`))
	require.NoError(t, err)
	issues := bad.Validate()
	require.Len(t, issues, 2)
	assert.Equal(t, "Amount", issues[0].Column)
	assert.Contains(t, issues[0].Message, "invalid constraint")
	assert.Equal(t, "Code", issues[1].Column)
	assert.Contains(t, issues[1].Message, "invalid pattern")
	assert.Contains(t, issues[0].String(), `column "Amount":`)
}

func TestRuleSet_EvalConstraint(t *testing.T) {
	rs, err := ParseRules([]byte(ordersRuleYAML))
	require.NoError(t, err)
	amount := rs.Rule("Amount")
	require.NotNil(t, amount)

	ok, err := rs.EvalConstraint(amount, FromNumber(12.5), 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rs.EvalConstraint(amount, FromInteger(0), 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rs.EvalConstraint(amount, FromNumber(-1), 3)
	require.NoError(t, err)
	assert.False(t, ok)

	// Text where the constraint expects a number is an evaluation error.
	_, err = rs.EvalConstraint(amount, FromText("N/A"), 3)
	assert.Error(t, err)
}

func TestRuleSet_EvalConstraintEnvironment(t *testing.T) {
	rs := &RuleSet{Columns: []ColumnRule{
		{Column: "A", Constraint: `text == "widget" && row > 1`},
		{Column: "B", Constraint: "nil"},
		{Column: "C", Constraint: "value + 1"},
		{Column: "D"},
	}}

	ok, err := rs.EvalConstraint(rs.Rule("A"), FromText("widget"), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rs.EvalConstraint(rs.Rule("A"), FromText("widget"), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// A nil result counts as false without erroring.
	ok, err = rs.EvalConstraint(rs.Rule("B"), FromInteger(1), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// A non-bool result is the rule author's mistake.
	_, err = rs.EvalConstraint(rs.Rule("C"), FromInteger(1), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected bool")

	// No constraint means the rule passes.
	ok, err = rs.EvalConstraint(rs.Rule("D"), Empty(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRuleSet_MatchPattern(t *testing.T) {
	rs, err := ParseRules([]byte(ordersRuleYAML))
	require.NoError(t, err)
	rule := rs.Rule("Order ID")
	require.NotNil(t, rule)

	ok, err := rs.MatchPattern(rule, "ORD-1042")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rs.MatchPattern(rule, "INV-1042")
	require.NoError(t, err)
	assert.False(t, ok)

	// No pattern matches everything.
	ok, err = rs.MatchPattern(&ColumnRule{Column: "X"}, "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
