package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/loanpilot/loanpilot/internal/application/dto"
	"github.com/loanpilot/loanpilot/internal/application/usecase"
	"github.com/loanpilot/loanpilot/internal/domain/port"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// maxSalarySlipBytes caps the accepted upload size for salary slips.
const maxSalarySlipBytes = 5 << 20

// ConversationHandler exposes the orchestrator over HTTP.
type ConversationHandler struct {
	handleTurn   *usecase.HandleTurnUseCase
	getConv      *usecase.GetConversationUseCase
	deleteConv   *usecase.DeleteConversationUseCase
	underwriting *usecase.EvaluateUnderwritingUseCase
	extractor    port.SalarySlipExtractor
	logger       *slog.Logger
}

// NewConversationHandler wires the use cases into an HTTP handler.
func NewConversationHandler(
	handleTurn *usecase.HandleTurnUseCase,
	getConv *usecase.GetConversationUseCase,
	deleteConv *usecase.DeleteConversationUseCase,
	underwriting *usecase.EvaluateUnderwritingUseCase,
	extractor port.SalarySlipExtractor,
	logger *slog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		handleTurn:   handleTurn,
		getConv:      getConv,
		deleteConv:   deleteConv,
		underwriting: underwriting,
		extractor:    extractor,
		logger:       logger,
	}
}

// RegisterRoutes attaches the API routes to the given mux.
func (h *ConversationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/conversations/turn", h.turn)
	mux.HandleFunc("GET /api/v1/conversations/{id}", h.get)
	mux.HandleFunc("DELETE /api/v1/conversations/{id}", h.delete)
	mux.HandleFunc("POST /api/v1/underwriting/evaluate", h.evaluate)
	mux.HandleFunc("POST /api/v1/underwriting/re-evaluate", h.reevaluate)
	mux.HandleFunc("POST /api/v1/documents/salary-slip", h.uploadSalarySlip)
}

func (h *ConversationHandler) turn(w http.ResponseWriter, r *http.Request) {
	var req dto.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.handleTurn.Execute(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "turn failed",
			"conversation_id", req.ConversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process turn")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ConversationHandler) get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.getConv.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, valueobject.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get conversation failed",
			"conversation_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.deleteConv.Execute(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, valueobject.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "delete conversation failed",
			"conversation_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ConversationHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req dto.EvaluateUnderwritingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LoanAmount <= 0 {
		writeError(w, http.StatusBadRequest, "loan_amount must be positive")
		return
	}
	writeJSON(w, http.StatusOK, h.underwriting.Execute(r.Context(), req))
}

func (h *ConversationHandler) reevaluate(w http.ResponseWriter, r *http.Request) {
	var req dto.ReevaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.underwriting.Reevaluate(r.Context(), req))
}

// uploadSalarySlip accepts a multipart salary-slip upload, runs extraction,
// and feeds the result back into the conversation as a document_uploaded turn.
func (h *ConversationHandler) uploadSalarySlip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSalarySlipBytes)
	if err := r.ParseMultipartForm(maxSalarySlipBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	conversationID := r.FormValue("conversation_id")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	salary, confidence, err := h.extractor.ExtractSalarySlip(r.Context(), document)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "salary slip extraction failed",
			"conversation_id", conversationID, "file", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "could not extract salary from document")
		return
	}

	resp, err := h.handleTurn.Execute(r.Context(), dto.TurnRequest{
		ConversationID: conversationID,
		Event:          valueobject.EventDocumentUploaded,
		SalaryData: &dto.SalaryDataInput{
			FileID:           header.Filename,
			NetMonthlySalary: salary,
			Confidence:       confidence,
		},
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "document turn failed",
			"conversation_id", conversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process document")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
