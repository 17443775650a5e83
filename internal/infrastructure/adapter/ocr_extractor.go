package adapter

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Salary slip extraction
// ---------------------------------------------------------------------------

var amountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// SalarySlipExtractor pulls a net monthly salary out of an uploaded slip.
// This heuristic implementation treats the document as text and takes the
// largest plausible amount found; a real OCR backend slots in behind the
// same port. It implements port.SalarySlipExtractor.
type SalarySlipExtractor struct{}

// NewSalarySlipExtractor creates the extractor.
func NewSalarySlipExtractor() *SalarySlipExtractor {
	return &SalarySlipExtractor{}
}

// ExtractSalarySlip scans the document for amounts and returns the largest
// one as the net monthly salary. Finding nothing is not an error; it
// returns zero salary with zero confidence so underwriting can route to
// manual review.
func (e *SalarySlipExtractor) ExtractSalarySlip(_ context.Context, document []byte) (float64, float64, error) {
	matches := amountPattern.FindAllString(string(document), -1)

	var best float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			continue
		}
		// Ignore figures too small to be a monthly salary (dates, counts).
		if v < 1000 {
			continue
		}
		if v > best {
			best = v
		}
	}

	if best == 0 {
		return 0, 0, nil
	}
	return best, 0.6, nil
}
