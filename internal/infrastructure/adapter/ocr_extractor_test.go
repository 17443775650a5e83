package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSalarySlip_PicksLargestAmount(t *testing.T) {
	e := NewSalarySlipExtractor()

	doc := []byte("Payslip 08/2026\nBasic: 45,000.00\nHRA: 18,000\nNet Salary: 72,450.50\nPF: 3,600")
	salary, confidence, err := e.ExtractSalarySlip(context.Background(), doc)

	require.NoError(t, err)
	assert.InDelta(t, 72450.50, salary, 0.001)
	assert.InDelta(t, 0.6, confidence, 0.001)
}

func TestExtractSalarySlip_IgnoresSmallFigures(t *testing.T) {
	e := NewSalarySlipExtractor()

	// Dates and counts stay below the salary floor.
	doc := []byte("Date: 01/08/2026, 22 working days, net 54000")
	salary, _, err := e.ExtractSalarySlip(context.Background(), doc)

	require.NoError(t, err)
	assert.InDelta(t, 54000, salary, 0.001)
}

func TestExtractSalarySlip_NothingFound(t *testing.T) {
	e := NewSalarySlipExtractor()

	salary, confidence, err := e.ExtractSalarySlip(context.Background(), []byte("no figures here"))

	require.NoError(t, err)
	assert.Zero(t, salary)
	assert.Zero(t, confidence)
}
