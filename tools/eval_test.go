package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalExpression(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2+3", 5},
		{"15 * 23", 345},
		{"10 - 4 - 3", 3},
		{"8 / 2 / 2", 2},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"0.1 + 0.2", 0.30000000000000004},
		{"((1))", 1},
		{"2 * -3", -6},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := evalExpression(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvalExpressionRejects(t *testing.T) {
	cases := []string{
		"1/0",
		"2 + x",
		"import os",
		"__builtins__",
		"(2 + 3",
		"2 +",
		"2 ** 3 ** ",
		"",
		"1 2",
		"2..3 + 1",
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			_, err := evalExpression(expr)
			assert.Error(t, err)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "5", formatNumber(5))
	assert.Equal(t, "2.5", formatNumber(2.5))
	assert.Equal(t, "-0.125", formatNumber(-0.125))
	assert.Equal(t, "345", formatNumber(345.0))
}
