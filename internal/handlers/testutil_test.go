package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/radsonline/marketplace-golang/internal/otp"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSender records dispatched OTP codes and can be told to fail.
type fakeSender struct {
	to   string
	code string
	fail bool
}

func (f *fakeSender) SendOTP(to, code string) error {
	if f.fail {
		return errors.New("smtp relay down")
	}
	f.to = to
	f.code = code
	return nil
}

// newMockHandlers builds a Handlers backed by a sqlmock pool, a real
// in-memory OTP store and a fake email sender.
func newMockHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock, *fakeSender) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sender := &fakeSender{}
	h := &Handlers{
		DB:    db,
		OTP:   otp.NewMemoryStore(),
		Email: sender,
	}
	return h, mock, sender
}

// asUser fakes AuthMiddleware by stashing an identity in the context.
// The middleware itself is covered in internal/middleware.
func asUser(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// doJSON performs a JSON request against the router and returns the recorder.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorder body into a generic map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

// expectationsMet fails the test if any sqlmock expectation is unmet.
func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet SQL expectations: %v", err)
	}
}
