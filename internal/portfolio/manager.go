package portfolio

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPortfolioName is used when the store holds no data at all.
const DefaultPortfolioName = "My First Portfolio"

// Manager owns the in-memory portfolio collection and the active
// portfolio id. All mutations are serialized through one mutex and
// followed by a full re-serialization to the store. The collection always
// contains at least one portfolio, and the active id always refers to an
// existing one.
type Manager struct {
	store  Store
	quotes QuoteSource

	mu         sync.Mutex
	portfolios []Portfolio
	activeID   string
	refreshing map[string]bool
}

// NewManager loads the collection from the store, migrating or
// bootstrapping as needed, and sets the first portfolio active.
func NewManager(store Store, quotes QuoteSource) (*Manager, error) {
	ps, found, err := store.Load()
	if err != nil {
		return nil, err
	}
	if !found || len(ps) == 0 {
		ps = []Portfolio{{ID: uuid.NewString(), Name: DefaultPortfolioName, Items: []Position{}}}
		if err := store.Save(ps); err != nil {
			return nil, err
		}
	}
	return &Manager{
		store:      store,
		quotes:     quotes,
		portfolios: ps,
		activeID:   ps[0].ID,
		refreshing: make(map[string]bool),
	}, nil
}

// saveLocked persists the collection. Persistence is fire-and-forget with
// respect to the caller: a failed write keeps the in-memory state
// authoritative and is only logged.
func (m *Manager) saveLocked() {
	if err := m.store.Save(m.portfolios); err != nil {
		slog.Warn("portfolio save failed", "error", err)
	}
}

func (m *Manager) findLocked(id string) *Portfolio {
	for i := range m.portfolios {
		if m.portfolios[i].ID == id {
			return &m.portfolios[i]
		}
	}
	return nil
}

// Portfolios returns a copy of the collection in display order.
func (m *Manager) Portfolios() []Portfolio {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePortfolios(m.portfolios)
}

// ActiveID returns the id of the currently active portfolio.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Get returns a copy of one portfolio.
func (m *Manager) Get(id string) (Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findLocked(id)
	if p == nil {
		return Portfolio{}, newError(CodeNotFound, "portfolio not found: "+id, nil)
	}
	return clonePortfolio(*p), nil
}

// Active returns a copy of the active portfolio.
func (m *Manager) Active() (Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findLocked(m.activeID)
	if p == nil {
		return Portfolio{}, newError(CodeNotFound, "no active portfolio", nil)
	}
	return clonePortfolio(*p), nil
}

// Refreshing reports whether a price refresh is in flight for the given
// portfolio. The flag is advisory; it drives spinners and duplicate-call
// suppression, not correctness.
func (m *Manager) Refreshing(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing[id]
}

// Create appends a new empty portfolio and makes it active. Duplicate
// names are permitted.
func (m *Manager) Create(name string) (Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Portfolio{}, newError(CodeValidation, "portfolio name is required", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := Portfolio{ID: uuid.NewString(), Name: name, Items: []Position{}}
	m.portfolios = append(m.portfolios, p)
	m.activeID = p.ID
	m.saveLocked()
	return clonePortfolio(p), nil
}

// Delete removes a portfolio. Deleting the last remaining portfolio is
// rejected; deleting an unknown id is a no-op. When the active portfolio
// is deleted the first remaining one becomes active.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findLocked(id) == nil {
		return nil
	}
	if len(m.portfolios) <= 1 {
		return newError(CodeLastPortfolio, "you must keep at least one portfolio", nil)
	}

	kept := m.portfolios[:0]
	for _, p := range m.portfolios {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.portfolios = kept
	if m.activeID == id {
		m.activeID = m.portfolios[0].ID
	}
	m.saveLocked()
	return nil
}

// SwitchActive sets the active portfolio.
func (m *Manager) SwitchActive(id string) (Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findLocked(id)
	if p == nil {
		return Portfolio{}, newError(CodeNotFound, "portfolio not found: "+id, nil)
	}
	m.activeID = id
	return clonePortfolio(*p), nil
}

// AddPosition appends a new lot to the given portfolio. The symbol is
// upper-cased, buy price and quantity must be positive finite numbers,
// and the current price starts at the buy price so the entry renders
// sensibly before the first refresh.
func (m *Manager) AddPosition(portfolioID, symbol string, buyPrice, quantity float64) (Position, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Position{}, newError(CodeValidation, "symbol is required", nil)
	}
	if !positiveFinite(buyPrice) {
		return Position{}, newError(CodeValidation, "buy price must be a positive number", nil)
	}
	if !positiveFinite(quantity) {
		return Position{}, newError(CodeValidation, "quantity must be a positive number", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findLocked(portfolioID)
	if p == nil {
		return Position{}, newError(CodeNotFound, "portfolio not found: "+portfolioID, nil)
	}

	pos := Position{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		BuyPrice:     buyPrice,
		Quantity:     quantity,
		AddedAt:      time.Now().UnixMilli(),
		CurrentPrice: buyPrice,
	}
	p.Items = append(p.Items, pos)
	m.saveLocked()
	return pos, nil
}

// RemovePosition deletes a lot from a portfolio. Removal is idempotent:
// an unknown portfolio or position id is a no-op.
func (m *Manager) RemovePosition(portfolioID, positionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.findLocked(portfolioID)
	if p == nil {
		return nil
	}
	for i := range p.Items {
		if p.Items[i].ID == positionID {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			m.saveLocked()
			return nil
		}
	}
	return nil
}

// RefreshPrices fetches current quotes for the portfolio's distinct
// symbols and merges them into its positions. A symbol whose fetch failed
// (zero price) keeps the previous values, field by field. The symbol set
// is snapshotted at call time but the merge is applied to the latest
// state, so positions added or removed during an in-flight refresh are
// never lost or resurrected.
func (m *Manager) RefreshPrices(ctx context.Context, portfolioID string) (Portfolio, error) {
	m.mu.Lock()
	p := m.findLocked(portfolioID)
	if p == nil {
		m.mu.Unlock()
		return Portfolio{}, newError(CodeNotFound, "portfolio not found: "+portfolioID, nil)
	}
	if len(p.Items) == 0 {
		// Nothing to refresh; do not touch the provider.
		out := clonePortfolio(*p)
		m.mu.Unlock()
		return out, nil
	}
	if m.refreshing[portfolioID] {
		m.mu.Unlock()
		return Portfolio{}, newError(CodeRefreshBusy, "a price refresh is already in progress for this portfolio", nil)
	}
	m.refreshing[portfolioID] = true
	symbols := distinctSymbols(p.Items)
	m.mu.Unlock()

	quotes := m.quotes.BatchQuotes(ctx, symbols)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refreshing, portfolioID)

	p = m.findLocked(portfolioID)
	if p == nil {
		// Deleted while the fetch was in flight.
		return Portfolio{}, newError(CodeNotFound, "portfolio not found: "+portfolioID, nil)
	}

	bySymbol := make(map[string]BatchQuote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}
	for i := range p.Items {
		q, ok := bySymbol[p.Items[i].Symbol]
		if !ok {
			continue
		}
		if q.Price != 0 {
			p.Items[i].CurrentPrice = q.Price
		}
		if q.High != 0 {
			p.Items[i].High = q.High
		}
		if q.Low != 0 {
			p.Items[i].Low = q.Low
		}
	}
	m.saveLocked()
	return clonePortfolio(*p), nil
}

func distinctSymbols(items []Position) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.Symbol] {
			seen[it.Symbol] = true
			out = append(out, it.Symbol)
		}
	}
	return out
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
