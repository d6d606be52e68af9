package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/reconcile"
	"wasgeurtje_backend/internal/woocommerce"
)

type stubLedger struct {
	mu   sync.Mutex
	rows map[string]*reconcile.Record
}

func (s *stubLedger) Init(_ context.Context, rec reconcile.Record) error { return nil }

func (s *stubLedger) Get(_ context.Context, id string) (*reconcile.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rows[id]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (s *stubLedger) MarkUpdated(_ context.Context, id, ref string, cents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[id]
	if !ok || (rec.State != reconcile.StateInitialized && rec.State != reconcile.StateUpdated) {
		return nil
	}
	rec.State = reconcile.StateUpdated
	rec.OrderReference = ref
	rec.AmountCents = cents
	return nil
}

func (s *stubLedger) MarkSettled(_ context.Context, rec reconcile.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[rec.PaymentIntentID]
	if !ok {
		cp := rec
		cp.State = reconcile.StateSettled
		s.rows[rec.PaymentIntentID] = &cp
		return nil
	}
	if existing.State != reconcile.StateOrderCreated {
		existing.State = reconcile.StateSettled
	}
	return nil
}

func (s *stubLedger) Claim(_ context.Context, id string) (bool, reconcile.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[id]
	if !ok {
		return false, "", nil
	}
	if rec.State == reconcile.StateSettled {
		rec.State = reconcile.StateOrderCreated
		return true, reconcile.StateSettled, nil
	}
	return false, rec.State, nil
}

func (s *stubLedger) MarkOrderCreated(_ context.Context, id string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rows[id]; ok {
		rec.OrderID = orderID
	}
	return nil
}

func (s *stubLedger) MarkFailed(_ context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rows[id]; ok && rec.State == reconcile.StateOrderCreated {
		rec.State = reconcile.StateFailed
	}
	return nil
}

func (s *stubLedger) ListStuck(context.Context) ([]reconcile.Record, error) { return nil, nil }

type stubOrders struct {
	created int
	fail    error
}

func (s *stubOrders) FindOrderByPaymentIntent(context.Context, string) (*woocommerce.Order, error) {
	return nil, nil
}

func (s *stubOrders) CreateOrder(context.Context, woocommerce.OrderPayload, string) (*woocommerce.Order, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.created++
	return &woocommerce.Order{ID: 3001, Number: "WG-3001", Status: "processing", Total: "36.85"}, nil
}

func newTestRouter(orders *stubOrders) (*gin.Engine, *Handler) {
	ledger := &stubLedger{rows: map[string]*reconcile.Record{}}
	h := &Handler{
		Cfg: &config.Config{Debug: true, ProductRemap: map[string]string{"full-moon": "1410"}},
		Settler: &reconcile.Settler{
			Orders: orders,
			Ledger: ledger,
			Remap:  map[string]string{"full-moon": "1410"},
		},
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/woocommerce/orders/create", h.Create)
	return r, h
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/woocommerce/orders/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"paymentIntentId": "pi_9",
	"lineItems": [{"productReference": "full-moon", "quantity": 2}],
	"customer": {
		"firstName": "Jan", "lastName": "de Vries", "email": "jan@example.nl",
		"billingAddress": {"street": "Dorpsstraat", "houseNumber": "12", "city": "Amsterdam", "postalCode": "1012 AB", "country": "NL"}
	},
	"totals": {"subtotal": 31.90, "shippingCost": 4.95, "finalTotal": 36.85}
}`

func TestCreateValidation(t *testing.T) {
	r, _ := newTestRouter(&stubOrders{})

	w := post(r, `{"lineItems":[{"productReference":"full-moon","quantity":1}],"customer":{"email":"jan@example.nl"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "paymentIntentId")

	w = post(r, `{"paymentIntentId":"pi_9","lineItems":[],"customer":{"email":"jan@example.nl"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, `{"paymentIntentId":"pi_9","lineItems":[{"productReference":"full-moon","quantity":1}],"customer":{"email":"fout"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, `{"paymentIntentId":"pi_9","lineItems":[{"productReference":"full-moon","quantity":0}],"customer":{"email":"jan@example.nl"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "hoeveelheid")

	w = post(r, `{"paymentIntentId":"pi_9","lineItems":[{"productReference":"full-moon","quantity":-2}],"customer":{"email":"jan@example.nl"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "hoeveelheid")
}

func TestCreateMaterializesOrder(t *testing.T) {
	orders := &stubOrders{}
	r, _ := newTestRouter(orders)

	w := post(r, validBody)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(3001), resp["orderId"])
	assert.Equal(t, "WG-3001", resp["orderNumber"])
	assert.NotNil(t, resp["order"])
	assert.Equal(t, 1, orders.created)
}

func TestCreateTwiceReturnsSameOrder(t *testing.T) {
	orders := &stubOrders{}
	r, _ := newTestRouter(orders)

	first := post(r, validBody)
	second := post(r, validBody)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a["orderId"], b["orderId"])
	assert.Equal(t, true, b["duplicate"])
	assert.Equal(t, 1, orders.created)
}

// Le statut et le corps upstream restent lisibles dans la réponse d'erreur
func TestCreateSurfacesUpstreamError(t *testing.T) {
	orders := &stubOrders{fail: &woocommerce.UpstreamError{Status: 422, Body: `{"code":"woocommerce_rest_invalid_product"}`}}
	r, _ := newTestRouter(orders)

	w := post(r, validBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(422), resp["status"])
	assert.Contains(t, resp["debug"], "woocommerce_rest_invalid_product")
}
