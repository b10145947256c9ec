package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/pending"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"
	"github.com/go-authgate/fedlink/internal/templates"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ConfirmHandler finishes a federated sign-in: it reconciles the pending
// identity with local accounts, asks for confirmation when needed, and
// signs the user in.
type ConfirmHandler struct {
	carrier  pending.Carrier
	resolver *services.IdentityResolver
	merge    *services.MergeService
	est      *session.Establisher
}

func NewConfirmHandler(
	carrier pending.Carrier,
	resolver *services.IdentityResolver,
	merge *services.MergeService,
	est *session.Establisher,
) *ConfirmHandler {
	return &ConfirmHandler{
		carrier:  carrier,
		resolver: resolver,
		merge:    merge,
		est:      est,
	}
}

// ShowConfirm serves GET /auth/confirm
func (h *ConfirmHandler) ShowConfirm(c *gin.Context) {
	identity, ok := h.pendingIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	res, err := h.resolver.Resolve(ctx, identity, models.GetUserFromContext(c), "")
	if err != nil {
		log.Printf("[Confirm] Resolve %s failed: %v", identity.Key(), err)
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgLookupFailed)
		return
	}

	switch res.Outcome {
	case services.OutcomeUpdateExisting:
		user, err := h.merge.ApplyUpdateExisting(ctx, res.User, identity, nil)
		if err != nil {
			h.mergeFailed(c, identity, services.NewConfirmationForm(identity), err)
			return
		}
		h.finish(c, identity, user, c.Query("target"))
	case services.OutcomeSignInExisting:
		h.signInExisting(c, identity, res.User, c.Query("target"))
	default:
		h.renderForm(c, http.StatusOK, identity, services.NewConfirmationForm(identity), "")
	}
}

// SubmitConfirm serves POST /auth/confirm
func (h *ConfirmHandler) SubmitConfirm(c *gin.Context) {
	identity, ok := h.pendingIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	target := c.PostForm("target")

	form := services.ConfirmationForm{
		FirstName: c.PostForm("first"),
		LastName:  c.PostForm("last"),
		Email:     c.PostForm("email"),
		Website:   c.PostForm("website"),
	}
	if err := form.Validate(); err != nil {
		h.renderForm(c, http.StatusBadRequest, identity, form, msgConfirmRequired)
		return
	}

	res, err := h.resolver.Resolve(ctx, identity, models.GetUserFromContext(c), form.Email)
	if err != nil {
		log.Printf("[Confirm] Resolve %s failed: %v", identity.Key(), err)
		h.renderForm(c, http.StatusInternalServerError, identity, form, msgLookupFailed)
		return
	}

	var user *models.User
	switch res.Outcome {
	case services.OutcomeUpdateExisting:
		user, err = h.merge.ApplyUpdateExisting(ctx, res.User, identity, &form)
	case services.OutcomeSignInExisting:
		h.signInExisting(c, identity, res.User, target)
		return
	case services.OutcomeConflict:
		addFlash(c, msgEmailConflict)
		c.Redirect(http.StatusFound, "/sign-in")
		return
	default:
		user, err = h.merge.ApplyCreateNew(ctx, identity, form)
	}
	if err != nil {
		h.mergeFailed(c, identity, form, err)
		return
	}

	h.finish(c, identity, user, target)
}

// pendingIdentity returns the stashed identity, redirecting to the sign-in
// page when there is none
func (h *ConfirmHandler) pendingIdentity(c *gin.Context) (*auth.FederatedIdentity, bool) {
	identity, err := h.carrier.Retrieve(c.Request.Context(), sessions.Default(c))
	if err != nil {
		if !errors.Is(err, pending.ErrNoPendingAuth) {
			log.Printf("[Confirm] Failed to load pending sign-in: %v", err)
		}
		c.Redirect(http.StatusFound, "/sign-in")
		return nil, false
	}
	return identity, true
}

func (h *ConfirmHandler) signInExisting(
	c *gin.Context,
	identity *auth.FederatedIdentity,
	user *models.User,
	target string,
) {
	if !user.IsEnabled() {
		h.clearPending(c)
		addFlash(c, msgAccountDisabled)
		c.Redirect(http.StatusFound, "/sign-in")
		return
	}
	h.finish(c, identity, user, target)
}

// finish drops the pending identity, signs user in and sends them on
func (h *ConfirmHandler) finish(
	c *gin.Context,
	identity *auth.FederatedIdentity,
	user *models.User,
	target string,
) {
	h.clearPending(c)

	if err := h.est.SignIn(c, user, string(identity.Provider)); err != nil {
		log.Printf("[Confirm] Sign-in after %s failed for user=%s: %v", identity.Provider, user.ID, err)
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgSignInFailed)
		return
	}

	log.Printf("[Confirm] User signed in: user=%s provider=%s", user.ID, identity.Provider)
	c.Redirect(http.StatusFound, h.est.Target(c, target))
}

func (h *ConfirmHandler) clearPending(c *gin.Context) {
	if err := h.carrier.Clear(c.Request.Context(), sessions.Default(c)); err != nil {
		log.Printf("[Confirm] Failed to clear pending sign-in: %v", err)
	}
}

func (h *ConfirmHandler) mergeFailed(
	c *gin.Context,
	identity *auth.FederatedIdentity,
	form services.ConfirmationForm,
	err error,
) {
	switch {
	case errors.Is(err, services.ErrLinkConflict):
		// Retrying cannot succeed, so the pending sign-in is dropped
		h.clearPending(c)
		addFlash(c, fmt.Sprintf(msgLinkConflict, identity.Provider.DisplayName()))
		if models.GetUserFromContext(c) != nil {
			c.Redirect(http.StatusFound, session.DefaultTarget)
			return
		}
		c.Redirect(http.StatusFound, "/sign-in")
	case errors.Is(err, services.ErrConflict):
		addFlash(c, msgEmailConflict)
		c.Redirect(http.StatusFound, "/sign-in")
	case errors.Is(err, services.ErrValidation):
		h.renderForm(c, http.StatusBadRequest, identity, form, msgConfirmRequired)
	default:
		log.Printf("[Confirm] Saving %s account failed: %v", identity.Provider, err)
		h.renderForm(c, http.StatusInternalServerError, identity, form, msgSaveFailed)
	}
}

func (h *ConfirmHandler) renderForm(
	c *gin.Context,
	status int,
	identity *auth.FederatedIdentity,
	form services.ConfirmationForm,
	errMsg string,
) {
	target := c.PostForm("target")
	if target == "" {
		target = c.Query("target")
	}

	templates.RenderTempl(c, status, templates.ConfirmPage(templates.ConfirmPageProps{
		BaseProps:    baseProps(c),
		Error:        errMsg,
		Provider:     string(identity.Provider),
		ProviderName: identity.Provider.DisplayName(),
		Username:     identity.Username,
		AvatarURL:    identity.AvatarURL,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		Website:      form.Website,
		Target:       target,
	}))
}
