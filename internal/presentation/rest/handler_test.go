package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanpilot/loanpilot/internal/application/dto"
	"github.com/loanpilot/loanpilot/internal/application/usecase"
	"github.com/loanpilot/loanpilot/internal/domain/event"
	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/port"
	"github.com/loanpilot/loanpilot/internal/domain/service"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
	"github.com/loanpilot/loanpilot/internal/infrastructure/persistence/memory"
	"github.com/loanpilot/loanpilot/internal/presentation/rest"
)

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, ...event.DomainEvent) error { return nil }

type stubCRM struct{}

func (stubCRM) GetCustomerProfile(_ context.Context, customerID string) (*valueobject.CustomerProfile, error) {
	income := 90000.0
	limit := 600000.0
	score := 760
	return &valueobject.CustomerProfile{
		CustomerID:       customerID,
		Name:             "Test Customer",
		MonthlyIncome:    &income,
		PreApprovedLimit: &limit,
		CreditScore:      &score,
	}, nil
}

type stubBureau struct{}

func (stubBureau) FetchReport(context.Context, string) (*valueobject.BureauReport, error) {
	score := 760
	return &valueobject.BureauReport{Score: &score, Utilization: 0.2, Accounts: 2}, nil
}

type stubNotifier struct{}

func (stubNotifier) Notify(context.Context, string, string, string) error { return nil }

type stubOTPStore struct{}

func (stubOTPStore) Put(context.Context, string, string, time.Duration) error { return nil }
func (stubOTPStore) Get(context.Context, string) (string, error)              { return "", nil }
func (stubOTPStore) Invalidate(context.Context, string) error                 { return nil }

type stubExtractor struct {
	salary     float64
	confidence float64
	err        error
}

func (s stubExtractor) ExtractSalarySlip(context.Context, []byte) (float64, float64, error) {
	return s.salary, s.confidence, s.err
}

type templateGenerator struct{}

func (templateGenerator) Generate(_ context.Context, _, userPrompt string) (string, error) {
	return userPrompt, nil
}
func (templateGenerator) ModelVersion() string { return "rule-based-v1" }

var (
	_ port.EventPublisher      = stubPublisher{}
	_ port.CRMClient           = stubCRM{}
	_ port.CreditBureauClient  = stubBureau{}
	_ port.Notifier            = stubNotifier{}
	_ port.OTPStore            = stubOTPStore{}
	_ port.SalarySlipExtractor = stubExtractor{}
	_ port.TextGenerator       = templateGenerator{}
)

func newTestServer(t *testing.T, extractor port.SalarySlipExtractor) (*http.ServeMux, *memory.ConversationStore) {
	t.Helper()

	store := memory.NewConversationStore()
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))

	handleTurn := usecase.NewHandleTurnUseCase(
		store,
		stubPublisher{},
		stubCRM{},
		stubBureau{},
		stubNotifier{},
		templateGenerator{},
		stubOTPStore{},
		service.NewStageRouter(),
		service.NewPricingEngine(),
		service.NewUnderwritingEngine(),
		service.NewSanctionIssuer(""),
		service.NewGamificationEngine(),
		logger,
	)

	handler := rest.NewConversationHandler(
		handleTurn,
		usecase.NewGetConversationUseCase(store),
		usecase.NewDeleteConversationUseCase(store),
		usecase.NewEvaluateUnderwritingUseCase(service.NewUnderwritingEngine()),
		extractor,
		logger,
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	rest.NewHealthHandler(logger).RegisterRoutes(mux)
	return mux, store
}

func TestTurnEndpoint_StartsConversation(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	body, _ := json.Marshal(dto.TurnRequest{CustomerID: "CUST-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/turn", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, valueobject.StageGreeting.String(), resp.Stage)
}

func TestTurnEndpoint_RejectsMalformedBody(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/turn", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversation_NotFound(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/missing-id", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAndDeleteConversation(t *testing.T) {
	mux, store := newTestServer(t, stubExtractor{})

	now := time.Now().UTC()
	conv := model.NewConversation("conv-42", "CUST-9", "en", now)
	require.NoError(t, store.Save(context.Background(), conv))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/conv-42", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "conv-42", got.ID)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/conversations/conv-42", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestEvaluateUnderwriting_Endpoint(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	score := 720
	limit := 500000.0
	income := 80000.0
	emi := 16000.0
	body, _ := json.Marshal(dto.EvaluateUnderwritingRequest{
		CreditScore:      &score,
		LoanAmount:       400000,
		PreApprovedLimit: &limit,
		MonthlyIncome:    &income,
		ProposedEMI:      &emi,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/underwriting/evaluate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.UnderwritingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.Decision)
	require.NotNil(t, resp.Explainability)
	assert.True(t, resp.Explainability.Approved())
}

func TestEvaluateUnderwriting_RequiresLoanAmount(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	body := []byte(`{"credit_score": 720}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/underwriting/evaluate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalarySlipUpload_FeedsDocumentTurn(t *testing.T) {
	mux, store := newTestServer(t, stubExtractor{salary: 72000, confidence: 0.6})

	now := time.Now().UTC()
	conv := model.NewConversation("conv-doc", "CUST-7", "en", now)
	conv.AdvanceStage(valueobject.StageDocumentUpload, now)
	require.NoError(t, store.Save(context.Background(), conv))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("conversation_id", "conv-doc"))
	fw, err := mw.CreateFormFile("file", "payslip.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Net Salary: 72,000"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/salary-slip", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conv-doc", resp.ConversationID)
	assert.InDelta(t, 72000, resp.State.SalarySlip.NetMonthlySalary, 0.01)
}

func TestSalarySlipUpload_MissingConversationID(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "payslip.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("slip"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/salary-slip", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	mux, _ := newTestServer(t, stubExtractor{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadiness_ReportsFailingDependency(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	handler := rest.NewHealthHandler(logger,
		rest.ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		rest.ReadinessCheck{Name: "kafka", Check: func(context.Context) error { return errors.New("broker down") }},
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "kafka", body["dependency"])
}
