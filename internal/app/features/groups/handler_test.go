// internal/app/features/groups/handler_test.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/freethub/freethub/internal/app/membership"
	"github.com/freethub/freethub/internal/app/store/groups"
	"github.com/freethub/freethub/internal/app/store/messages"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/testutil"
	"go.uber.org/zap"
)

func setupHandler(t *testing.T) (*Handler, *testutil.Fixtures, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	us := userstore.New(db)
	gs := groupstore.New(db)
	ms := messagestore.New(db)
	mm := membership.NewManager(db.Client(), gs, us, ms, zap.NewNop())
	return NewHandler(gs, us, ms, mm, zap.NewNop()), testutil.NewFixtures(t, db), ctx
}

func TestHandleCreateAndServeGroup(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")

	req := testutil.SignedInRequest("POST", "/api/groups", `{"name":"book club"}`, cora)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("no group id in response: %v", created)
	}
	if created["member_count"] != float64(1) {
		t.Errorf("member_count = %v, want 1", created["member_count"])
	}

	view := testutil.SignedInRequest("GET", "/api/groups/"+id, "", cora)
	rec = testutil.NewRecorder()
	h.ServeGroup(rec, testutil.WithChiURLParam(view, "id", id))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"username":"cora"`)
}

func TestServeGroup_NonMemberForbidden(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")
	odin := fx.CreateUser(ctx, "Odin", "odin")
	g := fx.CreateGroup(ctx, "private", cora.ID)

	req := testutil.SignedInRequest("GET", "/api/groups/"+g.ID.Hex(), "", odin)
	rec := testutil.NewRecorder()
	h.ServeGroup(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleAddMember_CreatorOnly(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")
	mina := fx.CreateUser(ctx, "Mina", "mina")
	odin := fx.CreateUser(ctx, "Odin", "odin")
	g := fx.CreateGroup(ctx, "club", cora.ID)

	// A non-creator cannot add members.
	req := testutil.SignedInRequest("POST", "/api/groups/"+g.ID.Hex()+"/members", `{"username":"mina"}`, odin)
	rec := testutil.NewRecorder()
	h.HandleAddMember(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)

	// The creator can.
	req = testutil.SignedInRequest("POST", "/api/groups/"+g.ID.Hex()+"/members", `{"username":"MINA"}`, cora)
	rec = testutil.NewRecorder()
	h.HandleAddMember(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"member_count":2`)

	g2, err := h.Groups.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !g2.HasMember(mina.ID) {
		t.Errorf("mina missing from roster: %v", g2.AllUsers)
	}
}

func TestHandleRemoveMember_CreatorGuard(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")
	g := fx.CreateGroup(ctx, "club", cora.ID)

	req := testutil.SignedInRequest("DELETE", "/api/groups/"+g.ID.Hex()+"/members/"+cora.ID.Hex(), "", cora)
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", cora.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRemoveMember(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "creator")
}

func TestHandleDelete_CreatorOnly(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")
	odin := fx.CreateUser(ctx, "Odin", "odin")
	g := fx.CreateGroup(ctx, "doomed", cora.ID)

	req := testutil.SignedInRequest("DELETE", "/api/groups/"+g.ID.Hex(), "", odin)
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.SignedInRequest("DELETE", "/api/groups/"+g.ID.Hex(), "", cora)
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	if _, err := h.Groups.GetByID(ctx, g.ID); err == nil {
		t.Errorf("group still present after delete")
	}
}
