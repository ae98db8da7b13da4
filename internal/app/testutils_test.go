package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quickshow/quickshow/internal/auth"
	"github.com/quickshow/quickshow/internal/mailer"
	"github.com/quickshow/quickshow/internal/mocks"
	"github.com/quickshow/quickshow/internal/reservation"
	"github.com/quickshow/quickshow/internal/validator"
)

const testJWTSecret = "test-secret"

func newTestApplication(opts ...func(*Application)) *Application {
	app := &Application{
		config: Config{
			Env: "test",
			Stripe: StripeConfig{
				WebhookSecret: "whsec_test",
			},
			Auth: AuthConfig{JWTSecret: testJWTSecret},
		},
		validator: validator.NewValidator(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailer:    &mailer.MockMailer{},
		verifier:  auth.NewJWTVerifier(testJWTSecret),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.engine == nil && app.showRepo != nil && app.bookingRepo != nil {
		app.engine = reservation.NewEngine(app.showRepo, app.bookingRepo, app.logger)
	}

	return app
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// withIdentity simulates a request that already passed the authenticate
// middleware.
func withIdentity(r *http.Request, userID string, admin bool) *http.Request {
	identity := auth.Identity{UserID: userID, Admin: admin}
	ctx := context.WithValue(r.Context(), identityContextKey, identity)

	return r.WithContext(ctx)
}

func issueTestToken(t *testing.T, userID string, admin bool) string {
	t.Helper()

	token, err := auth.IssueToken(testJWTSecret, userID, admin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	return token
}

func checkErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()

	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d", w.Code, wantStatus)
	}

	if wantCode == "" {
		return
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}

	if errorResp.Code != wantCode {
		t.Errorf("error code = %v, want %v", errorResp.Code, wantCode)
	}
}

func ptr[T any](v T) *T {
	return &v
}

// mocksFixture wires every collaborator of the application with mocks so
// individual tests only override what they care about.
type mocksFixture struct {
	movieRepo   *mocks.MockMovieRepo
	showRepo    *mocks.MockShowRepo
	bookingRepo *mocks.MockBookingRepo
	catalog     *mocks.MockCatalogGateway
	payment     *mocks.MockPaymentProvider
	publisher   *mocks.MockEventPublisher
}

func newMocksFixture() *mocksFixture {
	return &mocksFixture{
		movieRepo:   &mocks.MockMovieRepo{},
		showRepo:    &mocks.MockShowRepo{},
		bookingRepo: &mocks.MockBookingRepo{},
		catalog:     &mocks.MockCatalogGateway{},
		payment:     &mocks.MockPaymentProvider{},
		publisher:   &mocks.MockEventPublisher{},
	}
}

func (f *mocksFixture) apply(app *Application) {
	app.movieRepo = f.movieRepo
	app.showRepo = f.showRepo
	app.bookingRepo = f.bookingRepo
	app.catalog = f.catalog
	app.paymentProvider = f.payment
	app.publisher = f.publisher
}
