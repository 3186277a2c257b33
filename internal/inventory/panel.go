package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/constants"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/product/domain"
)

// Panel keeps a local view of one page of products in sync with the filters
// and actions applied to it. At most one authoritative list request is in
// flight: issuing a new one cancels the previous, and a superseded request's
// late result is discarded by a generation check. A request key derived from
// (page, search, minQuantity) suppresses back-to-back identical fetches until
// a mutation clears it.
type Panel struct {
	api   ProductAPI
	clock clock.Clock
	log   *logger.Logger

	debounceWindow time.Duration
	limit          int

	mu            sync.Mutex
	baseCtx       context.Context
	products      []domain.Product
	page          int
	totalPages    int
	totalProducts int
	searchName    string
	minQuantity   *int
	loading       bool
	err           error

	lastKey  string
	gen      int
	cancel   context.CancelFunc
	debounce clock.Timer
	started  bool

	wg sync.WaitGroup
}

type Option func(*Panel)

func WithDebounceWindow(d time.Duration) Option {
	return func(p *Panel) { p.debounceWindow = d }
}

func WithLimit(limit int) Option {
	return func(p *Panel) { p.limit = limit }
}

func NewPanel(api ProductAPI, clk clock.Clock, log *logger.Logger, opts ...Option) *Panel {
	p := &Panel{
		api:            api,
		clock:          clk,
		log:            log,
		debounceWindow: constants.DebounceWindow,
		limit:          constants.DefaultLimit,
		baseCtx:        context.Background(),
		page:           1,
		totalPages:     1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start performs the initial load. Page changes made before Start do not
// trigger fetches; everything after it does.
func (p *Panel) Start(ctx context.Context) {
	p.mu.Lock()
	p.baseCtx = ctx
	p.started = true
	p.fetchLocked(p.page)
	p.mu.Unlock()
}

// SetSearch updates the name filter. The refetch is debounced so rapid
// keystrokes issue at most one request per quiescent window.
func (p *Panel) SetSearch(search string) {
	p.mu.Lock()
	p.searchName = search
	p.scheduleDebounceLocked()
	p.mu.Unlock()
}

// SetMinQuantity updates the minimum-quantity filter; nil clears it.
// Debounced like SetSearch.
func (p *Panel) SetMinQuantity(min *int) {
	p.mu.Lock()
	p.minQuantity = min
	p.scheduleDebounceLocked()
	p.mu.Unlock()
}

// SetPage moves to another page and refetches.
func (p *Panel) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	if page == p.page {
		p.mu.Unlock()
		return
	}
	p.page = page
	if p.started {
		p.fetchLocked(page)
	}
	p.mu.Unlock()
}

// Refresh forces a refetch of the current page even if the parameters have
// not changed.
func (p *Panel) Refresh() {
	p.mu.Lock()
	p.lastKey = ""
	p.fetchLocked(p.page)
	p.mu.Unlock()
}

// Delete removes the product locally before the request resolves. On failure
// the previous view is restored and the error surfaced.
func (p *Panel) Delete(ctx context.Context, id domain.ID) error {
	p.mu.Lock()
	snapshot := make([]domain.Product, len(p.products))
	copy(snapshot, p.products)
	prevTotal := p.totalProducts

	kept := p.products[:0:0]
	for _, product := range p.products {
		if product.ID != id {
			kept = append(kept, product)
		}
	}
	p.products = kept
	if p.totalProducts > 0 {
		p.totalProducts--
	}
	p.mu.Unlock()

	if err := p.api.Delete(ctx, id); err != nil {
		p.mu.Lock()
		p.products = snapshot
		p.totalProducts = prevTotal
		p.err = err
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.lastKey = ""
	p.mu.Unlock()
	return nil
}

// SaveNew creates a product and reconciles by refetching the current page.
func (p *Panel) SaveNew(ctx context.Context, name string, quantity int) error {
	if _, err := p.api.Create(ctx, name, quantity); err != nil {
		return err
	}
	p.Refresh()
	return nil
}

// SaveEdit updates a product and reconciles by refetching the current page.
func (p *Panel) SaveEdit(ctx context.Context, id domain.ID, name string, quantity int) error {
	if _, err := p.api.Update(ctx, id, name, quantity); err != nil {
		return err
	}
	p.Refresh()
	return nil
}

// Visible applies the current filters over the local page before rendering,
// covering the window where the fetched page predates the latest filters.
func (p *Panel) Visible() []domain.Product {
	p.mu.Lock()
	defer p.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(p.searchName))
	visible := make([]domain.Product, 0, len(p.products))
	for _, product := range p.products {
		if search != "" && !strings.Contains(strings.ToLower(product.Name), search) {
			continue
		}
		if p.minQuantity != nil && product.Quantity < *p.minQuantity {
			continue
		}
		visible = append(visible, product)
	}
	return visible
}

func (p *Panel) Products() []domain.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Product, len(p.products))
	copy(out, p.products)
	return out
}

func (p *Panel) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Panel) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages
}

func (p *Panel) TotalProducts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalProducts
}

func (p *Panel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Wait blocks until every issued fetch has settled. Intended for tests and
// orderly shutdown.
func (p *Panel) Wait() {
	p.wg.Wait()
}

func (p *Panel) scheduleDebounceLocked() {
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = p.clock.AfterFunc(p.debounceWindow, p.debounceFired)
}

func (p *Panel) debounceFired() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.page = 1
	p.fetchLocked(1)
}

// fetchLocked issues one list request. Callers hold p.mu.
func (p *Panel) fetchLocked(requestedPage int) {
	key := p.requestKeyLocked(requestedPage)
	if key == p.lastKey {
		return
	}
	p.lastKey = key

	if p.cancel != nil {
		p.cancel()
	}

	ctx, cancel := context.WithCancel(p.baseCtx)
	p.cancel = cancel

	p.gen++
	gen := p.gen
	p.loading = true
	p.err = nil

	query := domain.ListQuery{
		Page:        requestedPage,
		Limit:       p.limit,
		Search:      p.searchName,
		MinQuantity: p.minQuantity,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		result, err := p.api.List(ctx, query)

		p.mu.Lock()
		defer p.mu.Unlock()

		if gen != p.gen {
			// superseded; a newer request owns the state now
			return
		}

		p.loading = false
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.log.Warnf("inventory fetch failed page=%d: %v", requestedPage, err)
			p.err = err
			return
		}

		p.products = result.Products
		p.totalPages = result.TotalPages
		p.totalProducts = result.TotalProducts
		if result.CurrentPage > 0 {
			p.page = result.CurrentPage
		} else {
			p.page = requestedPage
		}
	}()
}

func (p *Panel) requestKeyLocked(page int) string {
	minQ := ""
	if p.minQuantity != nil {
		minQ = fmt.Sprintf("%d", *p.minQuantity)
	}
	return fmt.Sprintf("%d|%s|%s", page, p.searchName, minQ)
}
