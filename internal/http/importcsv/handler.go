package importcsv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/param"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer/generic"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
	matchSvc  *matching.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service, matchSvc *matching.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
		matchSvc:  matchSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/banks", h.banks)
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type transactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	Date          time.Time  `json:"date"`
	Name          string     `json:"name"`
	Amount        int64      `json:"amount"`
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	IsDiscarded   bool       `json:"is_discarded"`
	RuleID        *uuid.UUID `json:"rule_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

type importSuccessResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []transactionResponse `json:"transactions"`
}

type createParamsDTO struct {
	Date          time.Time  `json:"date"`
	Name          string     `json:"name"`
	Amount        int64      `json:"amount"`
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	IsDiscarded   bool       `json:"is_discarded"`
	RuleID        *uuid.UUID `json:"rule_id"`
}

type conflictDTO struct {
	Incoming createParamsDTO     `json:"incoming"`
	Existing transactionResponse `json:"existing"`
}

type importConflictResponse struct {
	New       []createParamsDTO `json:"new"`
	Conflicts []conflictDTO     `json:"conflicts"`
}

type confirmRequest struct {
	Params []createParamsDTO `json:"params"`
}

func (h *Handler) banks(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.importSvc.Banks()); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// importCSV parses the uploaded export, classifies every row with the budget's rules
// and stores the batch. Rows that already exist come back as a 409 for confirmation.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		http.Error(w, "bank field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.parse(bank, r.FormValue("mapping"), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.matchSvc.ClassifyParams(r.Context(), budgetID, params); err != nil {
		slog.Error("classifying import", "budget_id", budgetID, "error", err)
		http.Error(w, "applying rules failed, nothing was imported", http.StatusInternalServerError)

		return
	}

	result, err := h.txSvc.ImportBatch(r.Context(), budgetID, params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]createParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: toTxResponse(c.Existing),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(result.Imported)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) parse(bank importer.Bank, rawMapping string, file io.Reader) ([]transaction.CreateParams, error) {
	if bank != importer.BankGeneric {
		return h.importSvc.Import(bank, file)
	}

	if rawMapping == "" {
		return nil, errors.New("mapping field is required for generic imports")
	}

	var m generic.Mapping
	if err := json.Unmarshal([]byte(rawMapping), &m); err != nil {
		return nil, errors.New("invalid mapping: " + err.Error())
	}

	return h.importSvc.ImportMapped(m, file)
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := auth.MustBudgetID(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	params := make([]transaction.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, transaction.CreateParams{
			Date:   p.Date,
			Name:   p.Name,
			Amount: p.Amount,
			Classification: transaction.Classification{
				CategoryID:    param.NullID(p.CategoryID),
				SubcategoryID: param.NullID(p.SubcategoryID),
				IsDiscarded:   p.IsDiscarded,
			},
			RuleID: param.NullID(p.RuleID),
		})
	}

	if err := h.checkRuleLinks(r.Context(), budgetID, params); err != nil {
		if errors.Is(err, matching.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	txs, err := h.txSvc.CreateBatch(r.Context(), budgetID, params)
	if errors.Is(err, transaction.ErrInvalidClassification) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// checkRuleLinks rejects confirmed rows linked to a rule outside the budget.
func (h *Handler) checkRuleLinks(ctx context.Context, budgetID uuid.UUID, params []transaction.CreateParams) error {
	var owned map[uuid.UUID]struct{}

	for _, p := range params {
		if !p.RuleID.Valid {
			continue
		}

		if owned == nil {
			rules, err := h.matchSvc.List(ctx, budgetID)
			if err != nil {
				return fmt.Errorf("listing rules: %w", err)
			}

			owned = make(map[uuid.UUID]struct{}, len(rules))
			for _, r := range rules {
				owned[r.ID] = struct{}{}
			}
		}

		if _, ok := owned[p.RuleID.UUID]; !ok {
			return fmt.Errorf("%w: rule_id %s", matching.ErrNotFound, p.RuleID.UUID)
		}
	}

	return nil
}

func toSuccessResponse(txs []*transaction.Transaction) importSuccessResponse {
	responses := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, toTxResponse(tx))
	}

	return importSuccessResponse{
		Imported:     len(txs),
		Transactions: responses,
	}
}

func toTxResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		Date:          tx.Date,
		Name:          tx.Name,
		Amount:        tx.Amount,
		CategoryID:    param.OptionalID(tx.CategoryID),
		SubcategoryID: param.OptionalID(tx.SubcategoryID),
		IsDiscarded:   tx.IsDiscarded,
		RuleID:        param.OptionalID(tx.RuleID),
		CreatedAt:     tx.CreatedAt,
	}
}

func toParamsDTO(p transaction.CreateParams) createParamsDTO {
	return createParamsDTO{
		Date:          p.Date,
		Name:          p.Name,
		Amount:        p.Amount,
		CategoryID:    param.OptionalID(p.CategoryID),
		SubcategoryID: param.OptionalID(p.SubcategoryID),
		IsDiscarded:   p.IsDiscarded,
		RuleID:        param.OptionalID(p.RuleID),
	}
}
