// internal/app/features/sessions/handler_test.go
package sessions

import (
	"context"
	"net/http"
	"testing"

	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/testutil"
	"go.uber.org/zap"
)

func setupHandler(t *testing.T) (*Handler, *testutil.Fixtures, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "freethub-test", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return NewHandler(userstore.New(db), sm, zap.NewNop()), testutil.NewFixtures(t, db), ctx
}

func TestHandleLogin(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	fx.CreateUser(ctx, "Ada", "ada")

	req := testutil.JSONRequest("POST", "/api/session", `{"username":"ADA","password":"`+testutil.TestPassword+`"}`)
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"username":"ada"`)
	if cookies := rec.Header().Values("Set-Cookie"); len(cookies) == 0 {
		t.Errorf("login response set no session cookie")
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	fx.CreateUser(ctx, "Ada", "ada")

	// Wrong password and unknown username produce the same response.
	for _, body := range []string{
		`{"username":"ada","password":"wrong"}`,
		`{"username":"nobody","password":"wrong"}`,
	} {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, testutil.JSONRequest("POST", "/api/session", body))
		rec.AssertStatus(t, http.StatusUnauthorized)
		rec.AssertContains(t, "invalid username or password")
	}
}

func TestServeCurrent_RequiresSession(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")

	rec := testutil.NewRecorder()
	h.ServeCurrent(rec, testutil.JSONRequest("GET", "/api/session", ""))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	h.ServeCurrent(rec, testutil.SignedInRequest("GET", "/api/session", "", ada))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"username":"ada"`)
}
