package importcsv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/auth"
	"github.com/MrJamesThe3rd/budgeteer/internal/http/importcsv"
	"github.com/MrJamesThe3rd/budgeteer/internal/importer"
	"github.com/MrJamesThe3rd/budgeteer/internal/matching"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

var budgetID = uuid.MustParse("5c1b7f0e-2a8d-4e63-9c4a-1b2d3e4f5a6b")

type fixture struct {
	txRepo    *transaction.MockRepository
	importTx  *transaction.MockImportTx
	rulesRepo *matching.MockRepository
	cats      *transaction.MockCategoryChecker
	router    http.Handler
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)

	f := &fixture{
		txRepo:    transaction.NewMockRepository(ctrl),
		importTx:  transaction.NewMockImportTx(ctrl),
		rulesRepo: matching.NewMockRepository(ctrl),
		cats:      transaction.NewMockCategoryChecker(ctrl),
	}

	txSvc := transaction.NewService(f.txRepo, f.cats)
	h := importcsv.NewHandler(importer.NewService(), txSvc, matching.NewService(f.rulesRepo, txSvc, f.cats))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithBudgetID(req.Context(), budgetID)))
		})
	})
	r.Route("/import", h.Routes)
	f.router = r

	return f
}

func upload(t *testing.T, fields map[string]string, csv string) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if csv != "" {
		fw, err := mw.CreateFormFile("file", "export.csv")
		require.NoError(t, err)

		_, err = fw.Write([]byte(csv))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

const genericCSV = "date,description,value\n2024-04-02,SPOTIFY AB,-9.99\n2024-04-03,Salary,1500.00\n"

const mapping = `{"date_column":"date","name_column":"description","amount_column":"value","decimal_separator":"."}`

func TestHandler_Import_ClassifiesAndStores(t *testing.T) {
	f := newFixture(t)

	music := transaction.SomeID(uuid.New())
	rule := &matching.Rule{
		ID:             uuid.New(),
		MatchType:      matching.MatchContains,
		MatchString:    "spotify",
		Classification: transaction.Classification{CategoryID: music},
	}

	f.rulesRepo.EXPECT().ListRules(gomock.Any(), budgetID).Return([]*matching.Rule{rule}, nil)
	f.txRepo.EXPECT().BeginImport(gomock.Any(), budgetID, gomock.Any(), gomock.Any()).Return(f.importTx, nil)
	f.importTx.EXPECT().FindDuplicates(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.importTx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) error {
			require.Len(t, txs, 2)
			assert.Equal(t, music, txs[0].CategoryID)
			assert.Equal(t, transaction.SomeID(rule.ID), txs[0].RuleID)
			assert.False(t, txs[1].RuleID.Valid)

			return nil
		})
	f.importTx.EXPECT().Commit().Return(nil)
	f.importTx.EXPECT().Rollback().Return(nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, upload(t, map[string]string{"bank": "generic", "mapping": mapping}, genericCSV))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Imported)
}

func TestHandler_Import_Conflict(t *testing.T) {
	f := newFixture(t)

	existing := &transaction.Transaction{
		ID:     uuid.New(),
		Date:   time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		Name:   "SPOTIFY AB",
		Amount: -999,
	}

	f.rulesRepo.EXPECT().ListRules(gomock.Any(), budgetID).Return(nil, nil)
	f.txRepo.EXPECT().BeginImport(gomock.Any(), budgetID, gomock.Any(), gomock.Any()).Return(f.importTx, nil)
	f.importTx.EXPECT().FindDuplicates(gomock.Any(), gomock.Any()).Return([]*transaction.Transaction{existing}, nil)
	f.importTx.EXPECT().Rollback().Return(nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, upload(t, map[string]string{"bank": "generic", "mapping": mapping}, genericCSV))

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		New       []map[string]any `json:"new"`
		Conflicts []map[string]any `json:"conflicts"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.New, 1)
	assert.Len(t, body.Conflicts, 1)
}

func TestHandler_Import_RulesUnavailable(t *testing.T) {
	f := newFixture(t)

	f.rulesRepo.EXPECT().ListRules(gomock.Any(), budgetID).Return(nil, errors.New("db down"))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, upload(t, map[string]string{"bank": "generic", "mapping": mapping}, genericCSV))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "nothing was imported")
}

func TestHandler_Import_BadRequests(t *testing.T) {
	type testCase struct {
		name   string
		fields map[string]string
		csv    string
	}

	tests := []testCase{
		{name: "MissingBank", fields: map[string]string{}, csv: genericCSV},
		{name: "MissingFile", fields: map[string]string{"bank": "cgd"}},
		{name: "UnknownBank", fields: map[string]string{"bank": "monzo"}, csv: genericCSV},
		{name: "GenericWithoutMapping", fields: map[string]string{"bank": "generic"}, csv: genericCSV},
		{name: "GenericBadMapping", fields: map[string]string{"bank": "generic", "mapping": `{"date_column":"date"}`}, csv: genericCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, upload(t, tt.fields, tt.csv))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func confirm(f *fixture, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import/confirm", strings.NewReader(body)))

	return rec
}

func TestHandler_Confirm(t *testing.T) {
	f := newFixture(t)

	catID := uuid.New()
	rule := &matching.Rule{ID: uuid.New(), MatchType: matching.MatchContains, MatchString: "spotify"}

	f.rulesRepo.EXPECT().ListRules(gomock.Any(), budgetID).Return([]*matching.Rule{rule}, nil)
	f.cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, catID, uuid.NullUUID{}).Return(nil)
	f.txRepo.EXPECT().BeginImport(gomock.Any(), budgetID, gomock.Any(), gomock.Any()).Return(f.importTx, nil)
	f.importTx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) error {
			require.Len(t, txs, 1)
			assert.Equal(t, transaction.SomeID(catID), txs[0].CategoryID)
			assert.Equal(t, transaction.SomeID(rule.ID), txs[0].RuleID)

			return nil
		})
	f.importTx.EXPECT().Commit().Return(nil)
	f.importTx.EXPECT().Rollback().Return(nil)

	body := `{"params":[{"date":"2024-04-02T00:00:00Z","name":"SPOTIFY AB","amount":-999,` +
		`"category_id":"` + catID.String() + `","rule_id":"` + rule.ID.String() + `"}]}`

	assert.Equal(t, http.StatusCreated, confirm(f, body).Code)
}

func TestHandler_Confirm_RejectsForeignReferences(t *testing.T) {
	foreign := uuid.New()

	type testCase struct {
		name      string
		body      string
		setupMock func(f *fixture)
	}

	tests := []testCase{
		{
			name: "RuleOfAnotherBudget",
			body: `{"params":[{"date":"2024-04-02T00:00:00Z","name":"SPOTIFY AB","amount":-999,"rule_id":"` + foreign.String() + `"}]}`,
			setupMock: func(f *fixture) {
				f.rulesRepo.EXPECT().ListRules(gomock.Any(), budgetID).Return([]*matching.Rule{{ID: uuid.New()}}, nil)
			},
		},
		{
			name: "CategoryOfAnotherBudget",
			body: `{"params":[{"date":"2024-04-02T00:00:00Z","name":"SPOTIFY AB","amount":-999,"category_id":"` + foreign.String() + `"}]}`,
			setupMock: func(f *fixture) {
				f.cats.EXPECT().CheckOwnership(gomock.Any(), budgetID, foreign, uuid.NullUUID{}).Return(category.ErrInvalidCategory)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			assert.Equal(t, http.StatusBadRequest, confirm(f, tt.body).Code)
		})
	}
}

func TestHandler_Banks(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/import/banks", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var banks []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&banks))
	assert.Equal(t, []string{"cgd", "generic"}, banks)
}
