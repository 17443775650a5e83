package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/loanpilot/loanpilot/internal/application/dto"
	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/port"
	"github.com/loanpilot/loanpilot/internal/domain/service"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// Journey defaults applied when a turn supplies no loan parameters.
const (
	defaultLoanAmount   = 500_000.0
	defaultLoanTenure   = 60
	defaultOTPTTL       = 5 * time.Minute
	fallbackIncome      = 80_000.0
	preApprovedMultiple = 4.0
)

// HandleTurnUseCase is the master turn controller: one call processes one
// inbound turn end-to-end, from state hydration through persistence.
type HandleTurnUseCase struct {
	repo         port.ConversationRepository
	publisher    port.EventPublisher
	crm          port.CRMClient
	bureau       port.CreditBureauClient
	notifier     port.Notifier
	textGen      port.TextGenerator
	otpStore     port.OTPStore
	router       *service.StageRouter
	pricing      *service.PricingEngine
	underwriter  *service.UnderwritingEngine
	sanctions    *service.SanctionIssuer
	gamification *service.GamificationEngine
	logger       *slog.Logger
	locks        *conversationLocks
}

// NewHandleTurnUseCase wires dependencies.
func NewHandleTurnUseCase(
	repo port.ConversationRepository,
	publisher port.EventPublisher,
	crm port.CRMClient,
	bureau port.CreditBureauClient,
	notifier port.Notifier,
	textGen port.TextGenerator,
	otpStore port.OTPStore,
	router *service.StageRouter,
	pricing *service.PricingEngine,
	underwriter *service.UnderwritingEngine,
	sanctions *service.SanctionIssuer,
	gamification *service.GamificationEngine,
	logger *slog.Logger,
) *HandleTurnUseCase {
	return &HandleTurnUseCase{
		repo:         repo,
		publisher:    publisher,
		crm:          crm,
		bureau:       bureau,
		notifier:     notifier,
		textGen:      textGen,
		otpStore:     otpStore,
		router:       router,
		pricing:      pricing,
		underwriter:  underwriter,
		sanctions:    sanctions,
		gamification: gamification,
		logger:       logger,
		locks:        newConversationLocks(),
	}
}

// turnOutcome is what one stage branch produces.
type turnOutcome struct {
	message string
	badge   *service.Badge
	offers  []service.PartnerOffer
}

// Execute processes one turn. Collaborator failures degrade to defaults;
// the only hard failure is an unrecoverable state write.
func (uc *HandleTurnUseCase) Execute(ctx context.Context, req dto.TurnRequest) (dto.TurnResponse, error) {
	now := time.Now().UTC()

	// 1. Hydrate or create state. New conversations get an id up front so
	// the per-conversation lock covers the whole turn.
	c, err := uc.hydrate(ctx, req, now)
	if err != nil {
		return dto.TurnResponse{}, err
	}

	release := uc.locks.Acquire(c.ID)
	defer release()

	// Re-read under the lock so a concurrent turn's write is visible.
	if existing, err := uc.repo.FindByID(ctx, c.ID); err == nil {
		c = existing
	}

	// 2. Profile hydration never blocks the turn.
	uc.hydrateProfile(ctx, c, req, now)

	// 3. Classify inbound text.
	if req.UserMessage != "" {
		intent, _ := service.ClassifyIntent(req.UserMessage)
		emotion, confidence := service.DetectEmotion(req.UserMessage)
		c.Classify(intent, emotion, confidence, now)
	}

	// Keep the offer in step with any new loan parameters.
	uc.refreshOffer(c, req, now)

	// 4. Transition.
	var out turnOutcome
	if req.Event != "" {
		out = uc.applyEvent(ctx, c, req, now)
	} else {
		out = uc.applyStage(ctx, c, req, now)
	}

	// 5. Compose the user-facing message. LLM phrasing is optional; its
	// failure leaves the deterministic template in place.
	message, fallbackUsed := uc.phrase(ctx, c, out.message)

	// 6. Audit, persist, publish.
	worker := uc.router.WorkerForStage(c.Stage)
	entry := model.AuditEntry{
		Timestamp: now,
		Actor:     "orchestrator",
		Action:    "stage_" + strings.ToLower(c.Stage.String()),
		InputSnapshot: map[string]any{
			"user_message": req.UserMessage,
			"event":        req.Event,
		},
		OutputSnapshot: map[string]any{
			"message": message,
			"worker":  worker,
		},
	}
	if !fallbackUsed {
		entry.ModelVersion = uc.textGen.ModelVersion()
	}
	c.AppendAudit(entry)

	if err := uc.repo.Save(ctx, c); err != nil {
		return dto.TurnResponse{}, fmt.Errorf("save conversation %s: %w", c.ID, err)
	}

	if events := c.DomainEvents(); len(events) > 0 {
		if err := uc.publisher.Publish(ctx, events...); err != nil {
			uc.logger.Warn("event publish failed",
				"conversation_id", c.ID, "error", err)
		}
		c.ClearEvents()
	}

	resp := dto.TurnResponse{
		ConversationID: c.ID,
		Stage:          c.Stage.String(),
		Message:        message,
		NextAction:     string(uc.router.NextAction(c.Stage, c)),
		Worker:         worker,
		State:          c,
		Audit:          &entry,
		Badge:          out.badge,
		Offers:         out.offers,
		FallbackUsed:   fallbackUsed,
	}
	if !fallbackUsed {
		resp.ModelVersion = uc.textGen.ModelVersion()
	}
	return resp, nil
}

func (uc *HandleTurnUseCase) hydrate(ctx context.Context, req dto.TurnRequest, now time.Time) (*model.Conversation, error) {
	if req.ConversationID == "" {
		return model.NewConversation("", req.CustomerID, req.Language, now), nil
	}
	c, err := uc.repo.FindByID(ctx, req.ConversationID)
	if errors.Is(err, valueobject.ErrConversationNotFound) {
		return model.NewConversation(req.ConversationID, req.CustomerID, req.Language, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", req.ConversationID, err)
	}
	return c, nil
}

// hydrateProfile resolves the customer profile once: CRM first, then the
// caller-supplied profile, then a synthetic demo default.
func (uc *HandleTurnUseCase) hydrateProfile(ctx context.Context, c *model.Conversation, req dto.TurnRequest, now time.Time) {
	if c.KYC.CRMSnapshot != nil {
		return
	}
	if c.CustomerID != "" {
		profile, err := uc.crm.GetCustomerProfile(ctx, c.CustomerID)
		if err == nil && profile != nil {
			c.AttachProfile(profile, now)
			return
		}
		if err != nil {
			uc.logger.Warn("crm lookup failed, using fallback profile",
				"conversation_id", c.ID, "error", err)
		}
	}
	if req.Profile != nil {
		c.AttachProfile(req.Profile, now)
		return
	}
	income := fallbackIncome
	limit := income * preApprovedMultiple
	c.AttachProfile(&valueobject.CustomerProfile{
		CustomerID:       c.CustomerID,
		Name:             "Valued Customer",
		MonthlyIncome:    &income,
		PreApprovedLimit: &limit,
	}, now)
}

func (uc *HandleTurnUseCase) refreshOffer(c *model.Conversation, req dto.TurnRequest, now time.Time) {
	amount := c.LoanRequest.RequestedAmount
	tenure := c.LoanRequest.RequestedTenure
	if req.LoanRequest != nil {
		if req.LoanRequest.Amount > 0 {
			amount = req.LoanRequest.Amount
		}
		if req.LoanRequest.TenureMonths > 0 {
			tenure = req.LoanRequest.TenureMonths
		}
		if req.LoanRequest.Purpose != "" {
			c.LoanRequest.Purpose = req.LoanRequest.Purpose
		}
	}
	if amount <= 0 {
		amount = defaultLoanAmount
	}
	if tenure <= 0 {
		tenure = defaultLoanTenure
	}
	if amount == c.Offer.Amount && tenure == c.Offer.Tenure && c.Offer.EMI > 0 {
		return
	}
	offer := uc.pricing.PriceOffer(c.KYC.CRMSnapshot, amount, tenure)
	c.RefreshOffer(amount, tenure, offer.PersonalizedRate, offer.EMI, offer.StandardRate, now)
}

// applyEvent runs the authoritative event transition table and the entry
// computation of the stage it lands on.
func (uc *HandleTurnUseCase) applyEvent(ctx context.Context, c *model.Conversation, req dto.TurnRequest, now time.Time) turnOutcome {
	next := uc.router.DetermineStage(c.Stage, req.Event)

	switch req.Event {
	case valueobject.EventOTPVerified:
		c.MarkKYCVerified("", now)
		c.AdvanceStage(next, now)
		return uc.runUnderwriting(ctx, c, now)

	case valueobject.EventDocumentUploaded:
		if req.SalaryData != nil {
			c.RecordSalarySlip(req.SalaryData.FileID, req.SalaryData.NetMonthlySalary, req.SalaryData.Confidence, now)
		}
		c.AdvanceStage(next, now)
		if c.SalarySlip.NetMonthlySalary > 0 {
			return uc.reevaluateWithSalary(ctx, c, now)
		}
		return uc.runUnderwriting(ctx, c, now)

	case valueobject.EventSanctionGenerated:
		c.AdvanceStage(next, now)
		return uc.issueSanction(ctx, c, now)

	case valueobject.EventLoanDisbursed:
		amount := uc.sanctions.NetDisbursalAmount(c.Offer.Amount)
		if err := c.MarkDisbursed(fmt.Sprintf("DISB-%s", now.Format("20060102150405")), amount, now); err != nil {
			return turnOutcome{message: "Disbursement needs a sanction first. Let us complete your approval."}
		}
		c.AdvanceStage(next, now)
		return turnOutcome{message: fmt.Sprintf("Your loan of %.2f has been disbursed to your registered account.", amount)}
	}

	c.AdvanceStage(next, now)
	return turnOutcome{message: "Your journey is on track. Let me know how I can help further."}
}

// applyStage is the intent-driven per-stage switch for plain text turns.
func (uc *HandleTurnUseCase) applyStage(ctx context.Context, c *model.Conversation, req dto.TurnRequest, now time.Time) turnOutcome {
	switch c.Stage {
	case valueobject.StageNew:
		c.AdvanceStage(valueobject.StageGreeting, now)
		if req.UserMessage == "" {
			return turnOutcome{message: "Hello! I can help you with a personal loan today. What are you looking for?"}
		}
		return uc.greetingBranch(ctx, c, now)

	case valueobject.StageGreeting:
		return uc.greetingBranch(ctx, c, now)

	case valueobject.StageSales:
		return uc.salesBranch(ctx, c, req, now)

	case valueobject.StageVerification:
		return uc.verificationBranch(ctx, c, req, now)

	case valueobject.StageDocumentUpload:
		return turnOutcome{message: "Please upload your latest salary slip so that underwriting can proceed."}

	case valueobject.StageUnderwriting:
		return uc.runUnderwriting(ctx, c, now)

	case valueobject.StageSanction:
		return uc.issueSanction(ctx, c, now)

	case valueobject.StageGamification:
		badge := uc.gamification.AssignBadge(c.Stage, len(c.AuditLog))
		c.AdvanceStage(valueobject.StageEcosystemOffers, now)
		return turnOutcome{message: badge.Message, badge: &badge}

	case valueobject.StageEcosystemOffers:
		offers := uc.gamification.ListPartnerOffers("")
		names := make([]string, len(offers))
		for i, o := range offers {
			names[i] = o.Partner
		}
		c.AdvanceStage(valueobject.StageCompleted, now)
		return turnOutcome{
			message: "Unlocked partner offers: " + strings.Join(names, ", "),
			offers:  offers,
		}
	}

	return turnOutcome{message: "Your journey is on track. Let me know how I can help further."}
}

func (uc *HandleTurnUseCase) greetingBranch(ctx context.Context, c *model.Conversation, now time.Time) turnOutcome {
	switch c.LastIntent {
	case valueobject.IntentAbandon:
		c.Flags.Abandoned = true
		c.AdvanceStage(valueobject.StageCompleted, now)
		return turnOutcome{message: "No problem at all. Reach out whenever you are ready, and we will pick up right here."}

	case valueobject.IntentAskRate:
		return turnOutcome{message: fmt.Sprintf(
			"Your personalized rate is %.2f%% p.a. against a standard %.2f%%. Shall we look at the full offer?",
			c.Offer.PersonalizedRate, c.Offer.StandardRate)}

	case valueobject.IntentAskEMI:
		return turnOutcome{message: fmt.Sprintf(
			"For %.0f over %d months your EMI works out to %.2f per month. Want me to adjust the amount or tenure?",
			c.Offer.Amount, c.Offer.Tenure, c.Offer.EMI)}

	case valueobject.IntentAskTimeline:
		return turnOutcome{message: "Most approvals complete within minutes once KYC is verified. Shall we get started?"}
	}

	c.AdvanceStage(valueobject.StageSales, now)
	return turnOutcome{message: fmt.Sprintf(
		"Great! Based on your profile I can offer %.0f over %d months at %.2f%% p.a., an EMI of %.2f. What would you like to adjust?",
		c.Offer.Amount, c.Offer.Tenure, c.Offer.PersonalizedRate, c.Offer.EMI)}
}

func (uc *HandleTurnUseCase) salesBranch(ctx context.Context, c *model.Conversation, req dto.TurnRequest, now time.Time) turnOutcome {
	// Emotional objections are handled before any intent routing.
	if c.Emotion.Primary == valueobject.EmotionAnxiety || c.Emotion.Primary == valueobject.EmotionConfusion {
		if c.LastIntent == valueobject.IntentAskEMI {
			budget := c.Offer.EMI * 0.8
			affordable := uc.pricing.MaxAffordableAmount(budget, c.Offer.PersonalizedRate, c.Offer.Tenure)
			return turnOutcome{message: fmt.Sprintf(
				"I understand the EMI feels high. At %.2f per month you could comfortably take %.0f instead, or we can stretch the tenure. Which works better?",
				budget, affordable)}
		}
		return turnOutcome{message: "I hear you. There is no commitment yet; let me walk you through the terms step by step so you are fully comfortable."}
	}

	switch {
	case c.LastIntent == valueobject.IntentVerifyKYC || c.Emotion.Primary == valueobject.EmotionJoy:
		c.AdvanceStage(valueobject.StageVerification, now)
		uc.sendOTP(ctx, c, now)
		return turnOutcome{message: "I have triggered an OTP to your registered mobile number. Please verify to continue."}

	case c.LastIntent == valueobject.IntentAskRate || c.LastIntent == valueobject.IntentAskEMI:
		return turnOutcome{message: fmt.Sprintf(
			"Let us rework it. The current offer is %.0f over %d months at %.2f%%, EMI %.2f. Tell me the amount or tenure you prefer.",
			c.Offer.Amount, c.Offer.Tenure, c.Offer.PersonalizedRate, c.Offer.EMI)}
	}

	return turnOutcome{message: fmt.Sprintf(
		"Here is where we stand: %.0f over %d months at %.2f%% p.a., EMI %.2f. Say the word and we can verify your KYC to lock it in.",
		c.Offer.Amount, c.Offer.Tenure, c.Offer.PersonalizedRate, c.Offer.EMI)}
}

func (uc *HandleTurnUseCase) verificationBranch(ctx context.Context, c *model.Conversation, req dto.TurnRequest, now time.Time) turnOutcome {
	if c.LastIntent == valueobject.IntentEscalate {
		c.Flags.NeedsHuman = true
		c.AdvanceStage(valueobject.StageCompleted, now)
		return turnOutcome{message: "I am connecting you with a relationship manager who will take it from here."}
	}

	code := strings.TrimSpace(req.UserMessage)
	if !uc.acceptOTP(ctx, c, code) {
		return turnOutcome{message: "Please enter the 4-digit OTP sent to your registered mobile number."}
	}

	c.MarkKYCVerified("", now)
	uc.fetchBureau(ctx, c, now)

	decision, explain := uc.underwriter.EvaluateConditionalApproval(
		c.KYC.CRMSnapshot, c.Underwriting.Bureau, c.Offer.Amount, c.Offer.EMI)
	c.RecordDecision(decision, &explain, now)

	switch decision.Kind {
	case valueobject.DecisionReject:
		c.AdvanceStage(valueobject.StageRejected, now)
		return turnOutcome{message: "I am sorry, we cannot approve this application right now. " + decision.Reason}

	case valueobject.DecisionInstantApprove:
		c.AdvanceStage(valueobject.StageSanction, now)
		return uc.issueSanction(ctx, c, now)

	default:
		// Needs-salary and manual-review both route through documents.
		c.AdvanceStage(valueobject.StageDocumentUpload, now)
		return turnOutcome{message: "You are verified. To complete approval, please upload your latest salary slip."}
	}
}

// runUnderwriting is the direct-path evaluation against current state.
func (uc *HandleTurnUseCase) runUnderwriting(ctx context.Context, c *model.Conversation, now time.Time) turnOutcome {
	uc.fetchBureau(ctx, c, now)

	var score *int
	if c.Underwriting.Bureau != nil {
		score = c.Underwriting.Bureau.Score
	}
	var income *float64
	if c.SalarySlip.NetMonthlySalary > 0 {
		income = &c.SalarySlip.NetMonthlySalary
	} else if c.KYC.CRMSnapshot != nil {
		income = c.KYC.CRMSnapshot.MonthlyIncome
	}
	emi := c.Offer.EMI

	explain := uc.underwriter.RunRules(service.RuleInputs{
		CreditScore:      score,
		LoanAmount:       c.Offer.Amount,
		PreApprovedLimit: c.Underwriting.PreApprovedLimit,
		MonthlyIncome:    income,
		ProposedEMI:      &emi,
	})

	if explain.Approved() {
		c.RecordDecision(valueobject.Decision{
			Kind: valueobject.DecisionInstantApprove,
		}, &explain, now)
		c.AdvanceStage(valueobject.StageSanction, now)
		return uc.issueSanction(ctx, c, now)
	}

	c.RecordDecision(valueobject.Decision{
		Kind:   valueobject.DecisionReject,
		Reason: explain.Summary,
	}, &explain, now)
	return turnOutcome{message: explain.Summary}
}

func (uc *HandleTurnUseCase) reevaluateWithSalary(ctx context.Context, c *model.Conversation, now time.Time) turnOutcome {
	decision := uc.underwriter.ReevaluateWithSalary(c.Offer.EMI, c.SalarySlip.NetMonthlySalary)
	c.RecordDecision(decision, nil, now)

	switch decision.Kind {
	case valueobject.DecisionApproved:
		c.AdvanceStage(valueobject.StageSanction, now)
		return uc.issueSanction(ctx, c, now)

	case valueobject.DecisionPartialApproval:
		c.AdvanceStage(valueobject.StageDocumentUpload, now)
		return turnOutcome{message: fmt.Sprintf(
			"Based on your salary we can support an EMI up to %.2f. Shall I restructure the offer to fit?",
			decision.MaxAffordableEMI)}

	default:
		c.AdvanceStage(valueobject.StageDocumentUpload, now)
		return turnOutcome{message: "We could not read your salary slip clearly. An underwriter will review it manually, or you can upload a fresh copy."}
	}
}

// issueSanction generates the sanction artifact (reusing an existing number)
// and always lands the conversation in COMPLETED.
func (uc *HandleTurnUseCase) issueSanction(ctx context.Context, c *model.Conversation, now time.Time) turnOutcome {
	s := c.AttachSanction(uc.sanctions.Issue(c, now), now)

	if err := uc.notifier.Notify(ctx, c.CustomerID, "sms",
		fmt.Sprintf("Your sanction letter %s is ready.", s.SanctionNumber)); err != nil {
		uc.logger.Warn("sanction notification failed",
			"conversation_id", c.ID, "error", err)
	}

	badge := uc.gamification.AssignBadge(valueobject.StageSanction, len(c.AuditLog))
	c.AdvanceStage(valueobject.StageCompleted, now)
	return turnOutcome{
		message: fmt.Sprintf(
			"Congratulations! Sanction letter %s is ready. Download it before %s.",
			s.SanctionNumber, s.ValidUntil),
		badge: &badge,
	}
}

func (uc *HandleTurnUseCase) sendOTP(ctx context.Context, c *model.Conversation, now time.Time) {
	code := fmt.Sprintf("%04d", rand.Intn(10_000))
	if err := uc.otpStore.Put(ctx, c.ID, code, defaultOTPTTL); err != nil {
		uc.logger.Warn("otp store failed", "conversation_id", c.ID, "error", err)
	}
	if err := uc.notifier.Notify(ctx, c.CustomerID, "sms", "Your verification code is "+code); err != nil {
		uc.logger.Warn("otp notification failed", "conversation_id", c.ID, "error", err)
	}
}

// acceptOTP validates a submitted code against the stored one; when the
// store has no code (expired or unavailable) any 4-digit input passes, so a
// degraded cache never strands the customer.
func (uc *HandleTurnUseCase) acceptOTP(ctx context.Context, c *model.Conversation, input string) bool {
	if len(input) != 4 || !allDigits(input) {
		return false
	}
	stored, err := uc.otpStore.Get(ctx, c.ID)
	if err != nil || stored == "" {
		return true
	}
	if stored != input {
		return false
	}
	if err := uc.otpStore.Invalidate(ctx, c.ID); err != nil {
		uc.logger.Warn("otp invalidate failed", "conversation_id", c.ID, "error", err)
	}
	return true
}

func (uc *HandleTurnUseCase) fetchBureau(ctx context.Context, c *model.Conversation, now time.Time) {
	if c.Underwriting.Bureau != nil {
		return
	}
	report, err := uc.bureau.FetchReport(ctx, c.CustomerID)
	if err != nil || report == nil {
		uc.logger.Warn("bureau lookup failed, using fallback report",
			"conversation_id", c.ID, "error", err)
		score := 750
		report = &valueobject.BureauReport{Score: &score, Utilization: 0.35, Accounts: 3}
	}
	c.RecordBureau(*report, now)
}

func (uc *HandleTurnUseCase) phrase(ctx context.Context, c *model.Conversation, template string) (string, bool) {
	if uc.textGen == nil {
		return template, true
	}
	phrased, err := uc.textGen.Generate(ctx,
		"You are a helpful loan assistant. Rephrase the message warmly without changing any figure, date or reference number.",
		template)
	if err != nil || strings.TrimSpace(phrased) == "" {
		c.Flags.FallbackNeeded = true
		return template, true
	}
	return phrased, false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
