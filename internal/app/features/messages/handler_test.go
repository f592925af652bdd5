// internal/app/features/messages/handler_test.go
package messages

import (
	"context"
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
	return NewHandler(us, mm, zap.NewNop()), testutil.NewFixtures(t, db), ctx
}

func TestHandlePost(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")
	g := fx.CreateGroup(ctx, "chat", cora.ID)

	req := testutil.SignedInRequest("POST", "/api/messages", `{"group_id":"`+g.ID.Hex()+`","content":"hi there"}`, cora)
	rec := testutil.NewRecorder()
	h.HandlePost(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"content":"hi there"`)
	rec.AssertContains(t, `"username":"cora"`)
}

func TestHandlePost_Errors(t *testing.T) {
	h, fx, ctx := setupHandler(t)
	cora := fx.CreateUser(ctx, "Cora", "cora")
	odin := fx.CreateUser(ctx, "Odin", "odin")
	g := fx.CreateGroup(ctx, "chat", cora.ID)

	tests := []struct {
		name   string
		body   string
		sender string
		status int
	}{
		{"non-member", `{"group_id":"` + g.ID.Hex() + `","content":"hi"}`, "odin", http.StatusForbidden},
		{"bad group id", `{"group_id":"nope","content":"hi"}`, "cora", http.StatusBadRequest},
		{"blank content", `{"group_id":"` + g.ID.Hex() + `","content":"   "}`, "cora", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sender := cora
			if tc.sender == "odin" {
				sender = odin
			}
			rec := testutil.NewRecorder()
			h.HandlePost(rec, testutil.SignedInRequest("POST", "/api/messages", tc.body, sender))
			rec.AssertStatus(t, tc.status)
		})
	}
}
