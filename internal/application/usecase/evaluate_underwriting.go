package usecase

import (
	"context"

	"github.com/loanpilot/loanpilot/internal/application/dto"
	"github.com/loanpilot/loanpilot/internal/domain/service"
)

// EvaluateUnderwritingUseCase exposes the rule engine directly, for
// back-office tooling and contract tests.
type EvaluateUnderwritingUseCase struct {
	underwriter *service.UnderwritingEngine
}

// NewEvaluateUnderwritingUseCase wires dependencies.
func NewEvaluateUnderwritingUseCase(underwriter *service.UnderwritingEngine) *EvaluateUnderwritingUseCase {
	return &EvaluateUnderwritingUseCase{underwriter: underwriter}
}

// Execute runs the ordered base gates over the supplied inputs.
func (uc *EvaluateUnderwritingUseCase) Execute(ctx context.Context, req dto.EvaluateUnderwritingRequest) dto.UnderwritingResponse {
	explain := uc.underwriter.RunRules(service.RuleInputs{
		CreditScore:      req.CreditScore,
		LoanAmount:       req.LoanAmount,
		PreApprovedLimit: req.PreApprovedLimit,
		MonthlyIncome:    req.MonthlyIncome,
		ProposedEMI:      req.ProposedEMI,
	})
	return dto.UnderwritingResponse{
		Decision:       explain.Decision,
		Explainability: &explain,
	}
}

// Reevaluate runs the post-document affordability check.
func (uc *EvaluateUnderwritingUseCase) Reevaluate(ctx context.Context, req dto.ReevaluateRequest) dto.UnderwritingResponse {
	decision := uc.underwriter.ReevaluateWithSalary(req.RequestedEMI, req.NetMonthlySalary)
	return dto.UnderwritingResponse{
		Decision: string(decision.Kind),
		Result:   &decision,
	}
}
