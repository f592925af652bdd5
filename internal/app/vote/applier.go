// internal/app/vote/applier.go
//
// Package vote applies vote actions across the aggregates a single vote
// touches: the acting user's ledger, the freet's counters, and the
// author's received-vote totals. The ledger write is the idempotency
// gate; it goes first so a retry of the same request converges instead
// of double-counting. When the deployment supports multi-document
// transactions the whole sequence commits or rolls back together; on a
// standalone mongod the ledger-first ordering keeps partial failures
// recoverable by retry.
package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/freethub/freethub/internal/app/store/freets"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/htmlsanitize"
	"github.com/freethub/freethub/internal/app/system/inputval"
	"github.com/freethub/freethub/internal/app/system/txn"
	"github.com/freethub/freethub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrFreetNotFound = errors.New("freet not found")
	ErrUserNotFound  = errors.New("user not found")
)

// ActionKind names a vote action on a freet.
type ActionKind string

const (
	AddUpvote        ActionKind = "addUpvote"
	SubtractUpvote   ActionKind = "subtractUpvote"
	AddDownvote      ActionKind = "addDownvote"
	SubtractDownvote ActionKind = "subtractDownvote"
	EditContent      ActionKind = "editContent"
)

// Action is a requested mutation of a freet. Content is only consulted
// for EditContent.
type Action struct {
	Kind    ActionKind
	Content string
}

// polarity returns the vote direction an action kind operates on.
func (k ActionKind) polarity() models.Polarity {
	switch k {
	case AddUpvote, SubtractUpvote:
		return models.Upvote
	default:
		return models.Downvote
	}
}

type Applier struct {
	client *mongo.Client
	users  *userstore.Store
	freets *freetstore.Store
	log    *zap.Logger
}

func NewApplier(client *mongo.Client, us *userstore.Store, fs *freetstore.Store, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{client: client, users: us, freets: fs, log: log}
}

// errNoChange aborts the write sequence without treating it as a
// failure (duplicate add, subtract of an absent vote).
var errNoChange = errors.New("no change")

// Apply performs one vote action by actorID against freetID and
// returns the freet as it stands afterward. Duplicate adds and
// subtracts of votes that were never cast are benign no-ops.
func (a *Applier) Apply(ctx context.Context, actorID, freetID primitive.ObjectID, action Action) (models.Freet, error) {
	f, err := a.freets.GetByID(ctx, freetID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Freet{}, ErrFreetNotFound
		}
		return models.Freet{}, err
	}

	switch action.Kind {
	case AddUpvote, AddDownvote:
		err = a.addVote(ctx, actorID, f, action.Kind.polarity())
	case SubtractUpvote, SubtractDownvote:
		err = a.subtractVote(ctx, actorID, f, action.Kind.polarity())
	case EditContent:
		return a.editContent(ctx, freetID, action.Content)
	default:
		return models.Freet{}, fmt.Errorf("unknown vote action %q", action.Kind)
	}
	if err != nil {
		return models.Freet{}, err
	}

	updated, err := a.freets.GetByID(ctx, freetID)
	if err != nil {
		return models.Freet{}, err
	}
	return updated, nil
}

func (a *Applier) addVote(ctx context.Context, actorID primitive.ObjectID, f models.Freet, p models.Polarity) error {
	err := txn.WithTransaction(ctx, a.client, func(ctx context.Context) error {
		if err := a.users.RecordVote(ctx, actorID, f.ID, p); err != nil {
			switch {
			case errors.Is(err, userstore.ErrAlreadyVoted):
				return errNoChange
			case errors.Is(err, userstore.ErrOppositeVote):
				// Flip: undo the held opposite vote, then cast this one.
				if err := a.flipVote(ctx, actorID, f, p); err != nil {
					return err
				}
			case errors.Is(err, mongo.ErrNoDocuments):
				return ErrUserNotFound
			default:
				return err
			}
		}
		if err := a.freets.ApplyVote(ctx, f.ID, p, 1); err != nil {
			return a.partialWrite(ctx, "addVote", actorID, f, err)
		}
		if err := a.users.ApplyReceivedVote(ctx, f.AuthorID, p, 1); err != nil {
			return a.partialWrite(ctx, "addVote", actorID, f, err)
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

func (a *Applier) flipVote(ctx context.Context, actorID primitive.ObjectID, f models.Freet, p models.Polarity) error {
	opp := p.Opposite()
	if err := a.users.ClearVote(ctx, actorID, f.ID, opp); err != nil {
		return err
	}
	if err := a.freets.ApplyVote(ctx, f.ID, opp, -1); err != nil {
		return a.partialWrite(ctx, "flipVote", actorID, f, err)
	}
	if err := a.users.ApplyReceivedVote(ctx, f.AuthorID, opp, -1); err != nil {
		return a.partialWrite(ctx, "flipVote", actorID, f, err)
	}
	return a.users.RecordVote(ctx, actorID, f.ID, p)
}

func (a *Applier) subtractVote(ctx context.Context, actorID primitive.ObjectID, f models.Freet, p models.Polarity) error {
	err := txn.WithTransaction(ctx, a.client, func(ctx context.Context) error {
		if err := a.users.ClearVote(ctx, actorID, f.ID, p); err != nil {
			switch {
			case errors.Is(err, userstore.ErrNoSuchVote):
				return errNoChange
			case errors.Is(err, mongo.ErrNoDocuments):
				return ErrUserNotFound
			default:
				return err
			}
		}
		if err := a.freets.ApplyVote(ctx, f.ID, p, -1); err != nil {
			return a.partialWrite(ctx, "subtractVote", actorID, f, err)
		}
		if err := a.users.ApplyReceivedVote(ctx, f.AuthorID, p, -1); err != nil {
			return a.partialWrite(ctx, "subtractVote", actorID, f, err)
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

func (a *Applier) editContent(ctx context.Context, freetID primitive.ObjectID, content string) (models.Freet, error) {
	clean := htmlsanitize.Plain(content)
	if err := inputval.Content(clean); err != nil {
		return models.Freet{}, err
	}
	f, err := a.freets.UpdateContent(ctx, freetID, clean)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Freet{}, ErrFreetNotFound
		}
		return models.Freet{}, err
	}
	return f, nil
}

// partialWrite records a counter update that failed after the ledger was
// already mutated. Inside a transaction the session rolls the ledger
// back; on a standalone deployment the correlation id in the log line is
// what an operator reconciles against.
func (a *Applier) partialWrite(ctx context.Context, op string, actorID primitive.ObjectID, f models.Freet, err error) error {
	corr := uuid.NewString()
	a.log.Error("vote counter update failed after ledger write",
		zap.String("op", op),
		zap.String("correlation_id", corr),
		zap.String("actor_id", actorID.Hex()),
		zap.String("freet_id", f.ID.Hex()),
		zap.String("author_id", f.AuthorID.Hex()),
		zap.Error(err))
	return fmt.Errorf("apply vote %s (correlation %s): %w", op, corr, err)
}
