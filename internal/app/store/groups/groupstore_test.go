package groupstore_test

import (
	"testing"

	groupstore "github.com/freethub/freethub/internal/app/store/groups"
	"github.com/freethub/freethub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate_RosterIsCreatorOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Carol", "carol")

	g, err := store.Create(ctx, creator.ID, "book club")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(g.AllUsers) != 1 || g.AllUsers[0] != creator.ID {
		t.Errorf("roster: got %v, want exactly the creator", g.AllUsers)
	}
	if len(g.AllMessages) != 0 {
		t.Errorf("new group should have no messages, got %d", len(g.AllMessages))
	}
	if g.CreatorID != creator.ID {
		t.Errorf("CreatorID: got %v, want %v", g.CreatorID, creator.ID)
	}
}

func TestAddMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Carol", "carol")
	member := fixtures.CreateUser(ctx, "Mel", "mel")
	g, _ := store.Create(ctx, creator.ID, "book club")

	added, err := store.AddMember(ctx, g.ID, member.ID)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if !added {
		t.Error("expected roster to change on first add")
	}

	// Duplicate add is a no-op.
	added, err = store.AddMember(ctx, g.ID, member.ID)
	if err != nil {
		t.Fatalf("second AddMember failed: %v", err)
	}
	if added {
		t.Error("expected duplicate add to be a no-op")
	}

	got, _ := store.GetByID(ctx, g.ID)
	if len(got.AllUsers) != 2 {
		t.Errorf("roster size: got %d, want 2", len(got.AllUsers))
	}
}

func TestAddMember_GroupNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.AddMember(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Carol", "carol")
	member := fixtures.CreateUser(ctx, "Mel", "mel")
	g, _ := store.Create(ctx, creator.ID, "book club")
	if _, err := store.AddMember(ctx, g.ID, member.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	removed, err := store.RemoveMember(ctx, g.ID, member.ID)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if !removed {
		t.Error("expected roster to change on remove")
	}

	// Removing again is a no-op.
	removed, err = store.RemoveMember(ctx, g.ID, member.ID)
	if err != nil {
		t.Fatalf("second RemoveMember failed: %v", err)
	}
	if removed {
		t.Error("expected removing an absent member to be a no-op")
	}
}

func TestAppendMessage_PreservesOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Carol", "carol")
	g, _ := store.Create(ctx, creator.ID, "book club")

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	third := primitive.NewObjectID()
	for _, id := range []primitive.ObjectID{first, second, third} {
		if err := store.AppendMessage(ctx, g.ID, id); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	got, _ := store.GetByID(ctx, g.ID)
	want := []primitive.ObjectID{first, second, third}
	if len(got.AllMessages) != 3 {
		t.Fatalf("message count: got %d, want 3", len(got.AllMessages))
	}
	for i := range want {
		if got.AllMessages[i] != want[i] {
			t.Errorf("message %d out of order", i)
		}
	}
}

func TestListByMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	carol := fixtures.CreateUser(ctx, "Carol", "carol")
	mel := fixtures.CreateUser(ctx, "Mel", "mel")

	g1, _ := store.Create(ctx, carol.ID, "both")
	if _, err := store.AddMember(ctx, g1.ID, mel.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if _, err := store.Create(ctx, carol.ID, "carol only"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListByMember(ctx, mel.ID)
	if err != nil {
		t.Fatalf("ListByMember failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != g1.ID {
		t.Errorf("unexpected groups for mel: %+v", got)
	}
}
