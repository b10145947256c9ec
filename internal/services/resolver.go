package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/store"
)

// Outcome is the decision the resolver reached for a federated identity
type Outcome int

const (
	// OutcomeUpdateExisting links the identity to the signed-in user
	OutcomeUpdateExisting Outcome = iota
	// OutcomeSignInExisting signs in the user already linked to the identity
	OutcomeSignInExisting
	// OutcomeNeedsConfirmation asks the user to confirm name and email first
	OutcomeNeedsConfirmation
	// OutcomeConflict rejects the identity: the email belongs to another account
	OutcomeConflict
	// OutcomeCreateNew creates a new account for the identity
	OutcomeCreateNew
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdateExisting:
		return "update_existing"
	case OutcomeSignInExisting:
		return "sign_in_existing"
	case OutcomeNeedsConfirmation:
		return "needs_confirmation"
	case OutcomeConflict:
		return "conflict"
	case OutcomeCreateNew:
		return "create_new"
	default:
		return "unknown"
	}
}

// Resolution is the result of reconciling one federated identity.
// User is set for OutcomeUpdateExisting and OutcomeSignInExisting,
// Err for OutcomeConflict.
type Resolution struct {
	Outcome Outcome
	User    *models.User
	Err     error
}

// IdentityResolver matches a federated identity to zero or one local account
type IdentityResolver struct {
	store   core.UserStore
	metrics core.Recorder
}

func NewIdentityResolver(s core.UserStore, m core.Recorder) *IdentityResolver {
	return &IdentityResolver{store: s, metrics: m}
}

// Resolve decides what to do with identity. currentUser is the signed-in
// user, if any. submittedEmail is the email confirmed on the confirmation
// form; it is empty before the form has been submitted.
//
// Resolve never writes. Lookup failures are returned as ErrPersistence.
func (r *IdentityResolver) Resolve(
	ctx context.Context,
	identity *auth.FederatedIdentity,
	currentUser *models.User,
	submittedEmail string,
) (*Resolution, error) {
	res, err := r.resolve(ctx, identity, currentUser, normalizeEmail(submittedEmail))
	if err != nil {
		return nil, err
	}
	r.metrics.RecordReconciliation(string(identity.Provider), res.Outcome.String())
	return res, nil
}

func (r *IdentityResolver) resolve(
	ctx context.Context,
	identity *auth.FederatedIdentity,
	currentUser *models.User,
	submittedEmail string,
) (*Resolution, error) {
	// A signed-in user linking another provider skips duplicate checks
	if currentUser != nil {
		return &Resolution{Outcome: OutcomeUpdateExisting, User: currentUser}, nil
	}

	linked, err := r.store.GetUserByServiceProfile(ctx, string(identity.Provider), identity.ProfileID)
	switch {
	case err == nil:
		return &Resolution{Outcome: OutcomeSignInExisting, User: linked}, nil
	case !errors.Is(err, store.ErrRecordNotFound):
		r.metrics.RecordDatabaseQueryError("get_user_by_service_profile")
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrPersistence, identity.Key(), err)
	}

	if submittedEmail == "" {
		return &Resolution{Outcome: OutcomeNeedsConfirmation}, nil
	}

	// Matching by email alone must never link the identity to that account
	_, err = r.store.GetUserByEmail(ctx, submittedEmail)
	switch {
	case err == nil:
		log.Printf("[Confirm] Email already registered for %s identity, refusing to link", identity.Provider)
		return &Resolution{Outcome: OutcomeConflict, Err: ErrEmailConflict}, nil
	case !errors.Is(err, store.ErrRecordNotFound):
		r.metrics.RecordDatabaseQueryError("get_user_by_email")
		return nil, fmt.Errorf("%w: lookup email: %v", ErrPersistence, err)
	}

	return &Resolution{Outcome: OutcomeCreateNew}, nil
}
