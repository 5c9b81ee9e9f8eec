package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"andaman/internal/config"
	"andaman/internal/domain/models"
	"andaman/internal/repositories"
	"andaman/internal/services"
)

func callbackRouter(h *PaymentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/payments/phonepe/callback", h.Callback)
	return r
}

func postCallback(r *gin.Engine, body, xVerify string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/phonepe/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if xVerify != "" {
		req.Header.Set("X-VERIFY", xVerify)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	store := services.NewMemorySessionStore()
	defer store.Close()

	h := &PaymentHandler{
		Client:   services.NewPhonePeClient(config.PhonePeEnv{SaltKey: "salt-key", SaltIndex: "1"}),
		Repo:     repositories.BookingRepository{DB: db},
		Sessions: store,
	}
	r := callbackRouter(h)

	payload := base64.StdEncoding.EncodeToString([]byte(`{"event":"checkout.order.completed","payload":{"merchantOrderId":"AE1A2B3C","state":"COMPLETED"}}`))

	w := postCallback(r, `{"response":"`+payload+`"}`, "forged###1")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	// No DB writes may happen on a forged callback.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("repository touched despite bad signature: %v", err)
	}
}

func TestCallbackUpdatesPaymentState(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("WHERE merchant_order_id").
		WithArgs("AE1A2B3C").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow(10, "AE1A2B3C", "", "makruzz", 3490.0, "pending", "AE1A2B3C", ""))
	mock.ExpectExec("UPDATE bookings SET payment_state").
		WithArgs("completed", "AE1A2B3C").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := services.NewMemorySessionStore()
	defer store.Close()

	h := &PaymentHandler{
		Client:   services.NewPhonePeClient(config.PhonePeEnv{SaltKey: "salt-key", SaltIndex: "1"}),
		Repo:     repositories.BookingRepository{DB: db},
		Sessions: store,
	}
	r := callbackRouter(h)

	payload := base64.StdEncoding.EncodeToString([]byte(`{"event":"checkout.order.completed","payload":{"merchantOrderId":"AE1A2B3C","state":"COMPLETED"}}`))
	signature := services.CallbackSignature(payload, "salt-key", "1")

	w := postCallback(r, `{"response":"`+payload+`"}`, signature)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func orderColumns() []string {
	return []string{
		"id", "confirmation_number", "provider_pnr", "operator",
		"total_amount", "payment_state", "merchant_order_id", "pdf_url",
	}
}

func TestCallbackUnknownOrderIs404(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("WHERE merchant_order_id").
		WithArgs("AE999999").
		WillReturnRows(sqlmock.NewRows(orderColumns()))

	store := services.NewMemorySessionStore()
	defer store.Close()

	h := &PaymentHandler{
		Client:   services.NewPhonePeClient(config.PhonePeEnv{SaltKey: "salt-key", SaltIndex: "1"}),
		Repo:     repositories.BookingRepository{DB: db},
		Sessions: store,
	}
	r := callbackRouter(h)

	payload := base64.StdEncoding.EncodeToString([]byte(`{"event":"checkout.order.completed","payload":{"merchantOrderId":"AE999999","state":"COMPLETED"}}`))
	signature := services.CallbackSignature(payload, "salt-key", "1")

	w := postCallback(r, `{"response":"`+payload+`"}`, signature)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	// Verified-but-unknown orders must not trigger a state write.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatusSurvivesStatePersistFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.ExpectExec("UPDATE bookings SET payment_state").
		WithArgs("completed", "AE1A2B3C").
		WillReturnError(errors.New("connection reset"))

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_at":` + strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10) + `,"token_type":"O-Bearer"}`))
	}))
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderId":"OMO1","state":"COMPLETED","amount":349000}`))
	}))
	defer api.Close()

	store := services.NewMemorySessionStore()
	defer store.Close()

	h := &PaymentHandler{
		Client:   services.NewPhonePeClient(config.PhonePeEnv{BaseURL: api.URL, AuthURL: auth.URL}),
		Repo:     repositories.BookingRepository{DB: db},
		Sessions: store,
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/payments/phonepe/status/:merchantOrderId", h.Status)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/phonepe/status/AE1A2B3C", nil))

	// The gateway answer is still authoritative for the caller even when
	// persisting it fails.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"state":"COMPLETED"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrderRoundsPaise(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_at":` + strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10) + `,"token_type":"O-Bearer"}`))
	}))
	defer auth.Close()

	var gotAmount int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount int64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("order body malformed: %v", err)
		}
		gotAmount = body.Amount
		w.Write([]byte(`{"orderId":"OMO1","state":"PENDING","redirectUrl":"https://pay.example/start","expireAt":1}`))
	}))
	defer api.Close()

	store := services.NewMemorySessionStore()
	defer store.Close()

	// 1234.55 * 3 is not exactly representable: TotalAmount comes out
	// as 3703.6499999999996 and must still charge 370365 paise.
	sess := store.Create(
		models.SearchParams{From: "port-blair", To: "havelock", Date: "2099-06-01", Adults: 2, Children: 1},
		models.UnifiedFerryResult{ID: "sealink-1", Operator: models.OperatorSealink, FerryName: "Sealink"},
		models.FerryClass{ID: "L", Name: "Luxury", Price: 1234.55},
	)

	h := &PaymentHandler{
		Client:   services.NewPhonePeClient(config.PhonePeEnv{BaseURL: api.URL, AuthURL: auth.URL}),
		Repo:     repositories.BookingRepository{DB: db},
		Sessions: store,
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/payments/phonepe/create-order", h.CreateOrder)

	body := `{"sessionId":"` + sess.SessionID + `","passengers":[` +
		`{"fullName":"A","age":30,"gender":"male","nationality":"indian","phone":"1"},` +
		`{"fullName":"B","age":28,"gender":"female","nationality":"indian"},` +
		`{"fullName":"C","age":6,"gender":"male","nationality":"indian"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/phonepe/create-order", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if gotAmount != 370365 {
		t.Fatalf("gateway charged %d paise, want 370365", gotAmount)
	}
}
