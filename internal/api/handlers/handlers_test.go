package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reconciliation-service/internal/api/middleware"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Dashboard(ctx context.Context, userID uint64) (domain.DashboardResult, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.DashboardResult), args.Error(1)
}

func (m *mockReconciler) PendingRows(ctx context.Context, userID uint64, q reconciliation.PendingQuery) (domain.PendingReport, error) {
	args := m.Called(ctx, userID, q)
	return args.Get(0).(domain.PendingReport), args.Error(1)
}

func (m *mockReconciler) Settings() reconciliation.Settings {
	return reconciliation.DefaultSettings()
}

func (m *mockReconciler) Now() time.Time {
	return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
}

func serve(h gin.HandlerFunc, userID uint64, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		if userID != 0 {
			middleware.SetUserID(c, userID)
		}
		h(c)
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestPendingQueryIsForwarded(t *testing.T) {
	engine := new(mockReconciler)
	cutoff := 90
	engine.On("PendingRows", mock.Anything, uint64(3), reconciliation.PendingQuery{
		GroupBy: domain.GroupByOrder, CutoffDays: &cutoff, Limit: 5,
	}).Return(domain.PendingReport{Rows: []domain.PendingRow{}}, nil)

	h := NewReconciliationHandler(engine, nil, "utf-8")
	w := serve(h.HandlePending, 3, "/x?group_by=ORDER&cutoff=90&limit=5")

	assert.Equal(t, http.StatusOK, w.Code)
	engine.AssertExpectations(t)
}

func TestEngineErrorsBecome500(t *testing.T) {
	engine := new(mockReconciler)
	engine.On("Dashboard", mock.Anything, uint64(1)).Return(domain.DashboardResult{}, errors.New("db fora"))
	engine.On("PendingRows", mock.Anything, uint64(1), mock.Anything).Return(domain.PendingReport{}, errors.New("db fora"))

	h := NewReconciliationHandler(engine, nil, "utf-8")
	for name, fn := range map[string]gin.HandlerFunc{
		"dashboard": h.HandleDashboard,
		"pending":   h.HandlePending,
		"csv":       h.HandleExportCSV,
		"report":    h.HandleReport,
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(fn, 1, "/x")
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), "db fora")
		})
	}
}

func TestHandlersRequireUser(t *testing.T) {
	h := NewReconciliationHandler(new(mockReconciler), nil, "utf-8")
	w := serve(h.HandleDashboard, 0, "/x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportWithoutUserLookup(t *testing.T) {
	engine := new(mockReconciler)
	age := 40
	engine.On("PendingRows", mock.Anything, uint64(1), mock.Anything).Return(domain.PendingReport{
		Summary: domain.PendingSummary{GroupBy: domain.GroupByItem, CutoffDays: 30},
		Rows: []domain.PendingRow{
			{OrderNumber: "A1", Platform: "SHEIN", Value: decimal.RequireFromString("10.5"), AgeDays: &age, Date: "21/05/2024"},
		},
	}, nil)

	h := NewReconciliationHandler(engine, nil, "utf-8")
	w := serve(h.HandleReport, 1, "/x")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=relatorio_pendencias_20240630_120000.txt", w.Header().Get("Content-Disposition"))
	assert.NotContains(t, w.Body.String(), "Exportado por")
	assert.Contains(t, w.Body.String(), "A1")
}

func TestHintsFor(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []domain.FileOutcome
		want     []string
	}{
		{
			name:     "all good",
			outcomes: []domain.FileOutcome{{Kind: domain.FileKindOrders}, {Kind: domain.FileKindPayments}},
			want:     nil,
		},
		{
			name:     "unknown file",
			outcomes: []domain.FileOutcome{{Kind: domain.FileKindUnknown}},
			want:     []string{ordersHint, paymentsHint},
		},
		{
			name:     "ambiguous file",
			outcomes: []domain.FileOutcome{{Kind: domain.FileKindAmbiguous}},
			want:     []string{separateHint},
		},
		{
			name: "missing payments signature",
			outcomes: []domain.FileOutcome{{
				Kind:   domain.FileKindPayments,
				Result: domain.ImportResult{Errors: []string{"Erro ao importar Pagamentos: coluna Valor a receber não encontrada"}},
			}},
			want: []string{paymentsHint},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hintsFor(tt.outcomes))
		})
	}
}
