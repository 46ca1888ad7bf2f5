// Package reconciliation cruza os pedidos e os pagamentos de um usuário e
// calcula o que continua pendente, com idade em dias e agregados.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoPaymentsWarning é o aviso exibido quando nenhum pagamento positivo existe.
const NoPaymentsWarning = "Nenhum pedido pago foi encontrado cruzando os relatórios. Verifique se as planilhas são do mesmo período/plataforma e se o 'Número do pedido' coincide."

// Store reads a user's persisted orders and payments.
type Store interface {
	// ListOrders devolve os itens do usuário ordenados por id.
	ListOrders(ctx context.Context, userID uint64) ([]domain.OrderLineItem, error)
	ListPayments(ctx context.Context, userID uint64) ([]domain.PaymentRecord, error)
}

// Clock returns the current instant.
type Clock func() time.Time

// Settings holds the engine thresholds.
type Settings struct {
	DashboardCutoffDays int
	ReportCutoffDays    int
	TopLimit            int
	// AgeAnchor vazio equivale a AnchorCollectedAt.
	AgeAnchor AgeAnchor
}

// DefaultSettings são os valores usados quando a configuração não informa outros.
func DefaultSettings() Settings {
	return Settings{DashboardCutoffDays: 30, ReportCutoffDays: 30, TopLimit: 10, AgeAnchor: AnchorCollectedAt}
}

// PendingQuery selects the shape of a pending report.
type PendingQuery struct {
	GroupBy domain.GroupMode
	// CutoffDays nil usa Settings.ReportCutoffDays.
	CutoffDays *int
	// Limit <= 0 devolve todas as linhas.
	Limit int
}

// Engine computes dashboards and pending reports. It keeps no state between calls.
type Engine struct {
	store    Store
	clock    Clock
	loc      *time.Location
	settings Settings
	logger   *zap.Logger
}

// NewEngine cria o motor de conciliação.
func NewEngine(store Store, clock Clock, loc *time.Location, settings Settings, logger *zap.Logger) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.AgeAnchor == "" {
		settings.AgeAnchor = AnchorCollectedAt
	}
	return &Engine{store: store, clock: clock, loc: loc, settings: settings, logger: logger}
}

// Settings returns the thresholds in use.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Location is the business time zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now is the engine clock in the business time zone.
func (e *Engine) Now() time.Time {
	return e.clock().In(e.loc)
}

type snapshot struct {
	paid      map[string]struct{}
	items     []domain.OrderLineItem
	today     time.Time
	totalQty  int
	totalVal  decimal.Decimal
	noPayment bool
}

func (e *Engine) load(ctx context.Context, userID uint64) (*snapshot, error) {
	orders, err := e.store.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar pedidos: %w", err)
	}
	payments, err := e.store.ListPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar pagamentos: %w", err)
	}

	snap := &snapshot{
		paid:     PaidSet(payments),
		today:    e.Now(),
		totalVal: decimal.Zero,
	}
	snap.items = DedupItems(PendingCandidates(orders, snap.paid))
	for _, o := range orders {
		snap.totalQty += o.LineCount
		snap.totalVal = snap.totalVal.Add(o.ValueTotal)
	}
	snap.totalVal = snap.totalVal.Round(2)
	snap.noPayment = len(orders) > 0 && len(snap.paid) == 0
	return snap, nil
}

func (s *snapshot) warning() string {
	if s.noPayment {
		return NoPaymentsWarning
	}
	return ""
}

// PendingRows monta o relatório de pendências no modo e corte pedidos.
func (e *Engine) PendingRows(ctx context.Context, userID uint64, q PendingQuery) (domain.PendingReport, error) {
	snap, err := e.load(ctx, userID)
	if err != nil {
		return domain.PendingReport{}, err
	}

	cutoff := e.settings.ReportCutoffDays
	if q.CutoffDays != nil {
		cutoff = *q.CutoffDays
	}
	mode := q.GroupBy
	if mode != domain.GroupByOrder {
		mode = domain.GroupByItem
	}

	itemRows := ItemRows(snap.items, e.settings.AgeAnchor, snap.today, e.loc)
	orderRows := OrderRows(snap.items, e.settings.AgeAnchor, snap.today, e.loc)

	all := itemRows
	if mode == domain.GroupByOrder {
		all = orderRows
	}
	cut := ApplyCutoff(all, cutoff, q.Limit)
	older := ApplyCutoff(all, cutoff, 0)

	itemCount, itemValue := Totals(itemRows)
	orderCount, orderValue := Totals(orderRows)
	allCount, allValue := Totals(all)
	olderCount, olderValue := Totals(older)

	summary := domain.PendingSummary{
		GroupBy:             mode,
		CutoffDays:          cutoff,
		PendingCount:        allCount,
		PendingValue:        allValue,
		OlderCount:          olderCount,
		OlderValue:          olderValue,
		TotalsPerItemCount:  itemCount,
		TotalsPerItemValue:  itemValue,
		TotalsPerOrderCount: orderCount,
		TotalsPerOrderValue: orderValue,
		TotalOrders:         snap.totalQty,
		InvoicedValue:       snap.totalVal,
		Warning:             snap.warning(),
	}

	e.logger.Debug("relatório de pendências calculado",
		zap.Uint64("user_id", userID),
		zap.String("group_by", string(mode)),
		zap.Int("cutoff_days", cutoff),
		zap.Int("rows", len(cut)),
	)
	return domain.PendingReport{Summary: summary, Rows: cut}, nil
}

// Dashboard calcula os KPIs e os pedidos pendentes mais antigos.
func (e *Engine) Dashboard(ctx context.Context, userID uint64) (domain.DashboardResult, error) {
	snap, err := e.load(ctx, userID)
	if err != nil {
		return domain.DashboardResult{}, err
	}

	cutoff := e.settings.DashboardCutoffDays
	itemRows := ItemRows(snap.items, e.settings.AgeAnchor, snap.today, e.loc)
	orderRows := OrderRows(snap.items, e.settings.AgeAnchor, snap.today, e.loc)

	pendingCount, pendingValue := Totals(ApplyCutoff(itemRows, cutoff, 0))
	itemCount, itemValue := Totals(itemRows)
	orderCount, orderValue := Totals(orderRows)

	summary := domain.DashboardSummary{
		TotalOrders:         snap.totalQty,
		InvoicedValue:       snap.totalVal,
		CutoffDays:          cutoff,
		PendingCount:        pendingCount,
		PendingValue:        pendingValue,
		TotalsPerItemCount:  itemCount,
		TotalsPerItemValue:  itemValue,
		TotalsPerOrderCount: orderCount,
		TotalsPerOrderValue: orderValue,
		Warning:             snap.warning(),
	}
	rows := ApplyCutoff(orderRows, cutoff, e.settings.TopLimit)
	return domain.DashboardResult{Summary: summary, Rows: rows}, nil
}
