package curve

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdDeposits = `{
  "curve_date": "2025-12-15",
  "currency": "usd",
  "indexes": ["SOFR"],
  "deposits": {"1Y": 4.60, "1M": 4.30, "6M": 4.50, "3M": 4.40}
}`

func runCurve(t *testing.T, input string, args ...string) (int, Output) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, strings.NewReader(input), &stdout, &stderr)
	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	return code, out
}

func tightConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root_finder:\n  absolute_tolerance: 1.0e-12\n  relative_tolerance: 0\n"), 0o600))
	return path
}

func TestRunDeposits(t *testing.T) {
	code, out := runCurve(t, usdDeposits, "-config", tightConfig(t))
	require.Equal(t, 0, code, out.Error)

	assert.Equal(t, "USD discounting", out.Curve)
	require.Len(t, out.Nodes, 4)
	wantTenors := []string{"1M", "3M", "6M", "1Y"}
	wantDates := []string{"2026-01-15", "2026-03-16", "2026-06-15", "2026-12-15"}
	wantRates := []float64{0.043, 0.044, 0.045, 0.046}
	for i, n := range out.Nodes {
		assert.Equal(t, wantTenors[i], n.Tenor)
		assert.Equal(t, wantDates[i], n.MaturityDate)
		if i > 0 {
			assert.True(t, n.Time.GreaterThan(out.Nodes[i-1].Time))
		}

		tm := n.Time.InexactFloat64()
		accrual := tm * 365 / 360
		df := n.DiscountFactor.InexactFloat64()
		assert.InDelta(t, 1/(1+wantRates[i]*accrual), df, 1e-9, n.Tenor)
		assert.InDelta(t, -math.Log(df)/tm*100, n.ZeroRatePct.InexactFloat64(), 1e-6, n.Tenor)
	}
}

func TestRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(usdDeposits), 0o600))

	code, out := runCurve(t, "ignored", "-input", path)
	require.Equal(t, 0, code, out.Error)
	assert.Len(t, out.Nodes, 4)
	assert.True(t, out.Nodes[0].DiscountFactor.LessThan(decimal.NewFromInt(1)))
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bad json", input: `{`, want: "failed to parse JSON input"},
		{name: "bad date", input: `{"curve_date":"15/12/2025","currency":"USD","deposits":{"1Y":1}}`, want: "invalid curve_date"},
		{name: "no currency", input: `{"curve_date":"2025-12-15","deposits":{"1Y":1}}`, want: "currency is required"},
		{name: "no deposits", input: `{"curve_date":"2025-12-15","currency":"USD"}`, want: "deposits is required"},
		{name: "bad tenor", input: `{"curve_date":"2025-12-15","currency":"USD","deposits":{"1Q":1}}`, want: `invalid tenor "1Q"`},
		{name: "same maturity", input: `{"curve_date":"2025-12-15","currency":"USD","deposits":{"12M":1,"1Y":1}}`, want: "mature on the same date"},
		{name: "bad interpolator", input: `{"curve_date":"2025-12-15","currency":"USD","interpolator":"cubic","deposits":{"1Y":1}}`, want: "unknown interpolator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCurve(t, tt.input)
			assert.Equal(t, 1, code)
			assert.Contains(t, out.Error, tt.want)
		})
	}
}

func TestRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root_finder:\n  max_steps: 0\n"), 0o600))

	code, out := runCurve(t, usdDeposits, "-config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.Error, "root_finder.max_steps must be positive")
}

func TestRunFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, Run([]string{"-unknown"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, 0, Run([]string{"-help"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "calibrate curve")
}
