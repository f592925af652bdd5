// internal/app/features/freets/handler_test.go
package freets

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/freethub/freethub/internal/app/store/freets"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/vote"
	"github.com/freethub/freethub/internal/testutil"
	"go.uber.org/zap"
)

func setupHandler(t *testing.T) (*Handler, *testutil.Fixtures, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	us := userstore.New(db)
	fs := freetstore.New(db)
	ap := vote.NewApplier(db.Client(), us, fs, zap.NewNop())
	return NewHandler(db.Client(), us, fs, ap, zap.NewNop()), testutil.NewFixtures(t, db), ctx
}

func TestHandleCreate(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")

	req := testutil.SignedInRequest("POST", "/api/freets", `{"content":"  hello <b>world</b>  "}`, ada)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"content":"hello world"`)

	u, err := h.Users.GetByID(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.TotalFreets != 1 {
		t.Errorf("total_freets = %d, want 1", u.TotalFreets)
	}
}

func TestHandleCreate_RejectsInvalidContent(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")

	for _, body := range []string{
		`{"content":"   "}`,
		`{"content":"` + strings.Repeat("x", 141) + `"}`,
	} {
		rec := testutil.NewRecorder()
		h.HandleCreate(rec, testutil.SignedInRequest("POST", "/api/freets", body, ada))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestHandlePatch_VoteRoundTrip(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")
	bea := fx.CreateUser(ctx, "Bea", "bea")
	freet := fx.CreateFreet(ctx, bea.ID, "vote on me")

	req := testutil.SignedInRequest("PATCH", "/api/freets/"+freet.ID.Hex(), `{"action":"addUpvote"}`, ada)
	rec := testutil.NewRecorder()
	h.HandlePatch(rec, testutil.WithChiURLParam(req, "id", freet.ID.Hex()))

	rec.AssertStatus(t, http.StatusOK)
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if got["upvotes"] != float64(1) {
		t.Errorf("upvotes = %v, want 1", got["upvotes"])
	}

	req = testutil.SignedInRequest("PATCH", "/api/freets/"+freet.ID.Hex(), `{"action":"subtractUpvote"}`, ada)
	rec = testutil.NewRecorder()
	h.HandlePatch(rec, testutil.WithChiURLParam(req, "id", freet.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"upvotes":0`)
}

func TestHandlePatch_EditByNonAuthorForbidden(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")
	bea := fx.CreateUser(ctx, "Bea", "bea")
	freet := fx.CreateFreet(ctx, bea.ID, "not yours")

	req := testutil.SignedInRequest("PATCH", "/api/freets/"+freet.ID.Hex(), `{"action":"editContent","content":"hijack"}`, ada)
	rec := testutil.NewRecorder()
	h.HandlePatch(rec, testutil.WithChiURLParam(req, "id", freet.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandlePatch_UnknownAction(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")
	freet := fx.CreateFreet(ctx, ada.ID, "fine")

	req := testutil.SignedInRequest("PATCH", "/api/freets/"+freet.ID.Hex(), `{"action":"explode"}`, ada)
	rec := testutil.NewRecorder()
	h.HandlePatch(rec, testutil.WithChiURLParam(req, "id", freet.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleDelete_AuthorOnly(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")
	bea := fx.CreateUser(ctx, "Bea", "bea")
	freet := fx.CreateFreet(ctx, bea.ID, "keep out")

	req := testutil.SignedInRequest("DELETE", "/api/freets/"+freet.ID.Hex(), "", ada)
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", freet.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.SignedInRequest("DELETE", "/api/freets/"+freet.ID.Hex(), "", bea)
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", freet.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	if list, _ := h.Freets.ListByAuthor(ctx, bea.ID); len(list) != 0 {
		t.Errorf("freet survives deletion")
	}
}

func TestServeList_FilterByAuthor(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	ada := fx.CreateUser(ctx, "Ada", "ada")
	bea := fx.CreateUser(ctx, "Bea", "bea")
	fx.CreateFreet(ctx, ada.ID, "from ada")
	fx.CreateFreet(ctx, bea.ID, "from bea")

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.JSONRequest("GET", "/api/freets?author=ada", ""))
	rec.AssertStatus(t, http.StatusOK)

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d freets, want 1", len(got))
	}
	if got[0]["content"] != "from ada" {
		t.Errorf("content = %v, want from ada", got[0]["content"])
	}
	author, _ := got[0]["author"].(map[string]any)
	if author == nil || author["username"] != "ada" {
		t.Errorf("author not resolved: %v", got[0]["author"])
	}
}
