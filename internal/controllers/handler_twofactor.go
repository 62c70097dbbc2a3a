package controllers

import (
	"net/http"
	"regexp"

	"github.com/golang/glog"

	"selfservice/internal/clients/adminusers"
	"selfservice/internal/validation"
)

const (
	twoFactorMethodField = "two-fa-method"
	phoneField           = "phone"
	verifyCodeField      = "code"
)

// provisionalMethodKey names the session blob remembering which sign
// in method the user is switching to between the wizard's pages.
const provisionalMethodKey = "twoFactorAuthMethod"

var verifyCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

type provisionalMethod struct {
	Method string `json:"method"`
}

// GetTwoFactor shows the sign in method page for the signed in user.
func (h *Handler) GetTwoFactor(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminusers.GetUser(r.Context(), UserID(r), CorrelationID(r))
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get user - %v", CorrelationID(r), err)
		h.render.RenderErrorView(w, "")
		return
	}
	flash, _ := h.sessions.ConsumeFlash(SessionID(r))
	h.render.Render(w, "profile/two-factor/index", map[string]interface{}{
		"UsesApp": user.SecondFactor == adminusers.SecondFactorApp,
		"Flash":   flash,
		"Errors":  map[string]string{},
	})
}

// PostTwoFactor handles the method choice. Switching to SMS without
// a stored phone number detours via the phone page; otherwise the
// new method is provisioned straight away.
func (h *Handler) PostTwoFactor(w http.ResponseWriter, r *http.Request) {
	correlationID := CorrelationID(r)
	method := trimField(r, twoFactorMethodField)

	if method != string(adminusers.SecondFactorSMS) && method != string(adminusers.SecondFactorApp) {
		user, err := h.adminusers.GetUser(r.Context(), UserID(r), correlationID)
		if err != nil {
			glog.Errorf("[requestId=%s] failed to get user - %v", correlationID, err)
			h.render.RenderErrorView(w, "")
			return
		}
		h.render.Render(w, "profile/two-factor/index", map[string]interface{}{
			"UsesApp": user.SecondFactor == adminusers.SecondFactorApp,
			"Errors":  map[string]string{twoFactorMethodField: "Select how you want to sign in"},
		})
		return
	}

	if err := h.sessions.SetPageData(SessionID(r), provisionalMethodKey, provisionalMethod{Method: method}); err != nil {
		glog.Warningf("[requestId=%s] failed to persist provisional method - %v", correlationID, err)
	}

	if method == string(adminusers.SecondFactorSMS) {
		user, err := h.adminusers.GetUser(r.Context(), UserID(r), correlationID)
		if err != nil {
			glog.Errorf("[requestId=%s] failed to get user - %v", correlationID, err)
			h.render.RenderErrorView(w, "")
			return
		}
		if user.TelephoneNumber == "" {
			http.Redirect(w, r, pathTwoFactorPhone, http.StatusSeeOther)
			return
		}
	}

	h.provisionAndContinue(w, r, adminusers.SecondFactorMethod(method), "")
}

// GetTwoFactorPhone asks for the mobile number needed for SMS codes.
func (h *Handler) GetTwoFactorPhone(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, "profile/two-factor/phone", map[string]interface{}{
		"Phone":  "",
		"Errors": map[string]string{},
	})
}

// PostTwoFactorPhone validates the number and provisions SMS sign
// in. An invalid number re-renders with the value prefilled so the
// user can correct it.
func (h *Handler) PostTwoFactorPhone(w http.ResponseWriter, r *http.Request) {
	phone := trimField(r, phoneField)

	if result := validation.ValidateTelephoneNumber(phone); !result.Valid {
		h.render.Render(w, "profile/two-factor/phone", map[string]interface{}{
			"Phone":  phone,
			"Errors": map[string]string{phoneField: result.Message},
		})
		return
	}

	h.provisionAndContinue(w, r, adminusers.SecondFactorSMS, phone)
}

func (h *Handler) provisionAndContinue(w http.ResponseWriter, r *http.Request, method adminusers.SecondFactorMethod, phone string) {
	correlationID := CorrelationID(r)
	if err := h.adminusers.ProvisionSecondFactor(r.Context(), UserID(r), method, phone, correlationID); err != nil {
		glog.Errorf("[requestId=%s] failed to provision second factor - %v", correlationID, err)
		h.render.RenderErrorView(w, "")
		return
	}
	http.Redirect(w, r, pathTwoFactorVerify, http.StatusSeeOther)
}

// GetTwoFactorVerify asks for the verification code.
func (h *Handler) GetTwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, "profile/two-factor/configure", map[string]interface{}{
		"Errors": map[string]string{},
	})
}

// PostTwoFactorVerify completes the sign in method change with the
// code from the text message or authenticator app.
func (h *Handler) PostTwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	correlationID := CorrelationID(r)
	code := trimField(r, verifyCodeField)

	if !verifyCodePattern.MatchString(code) {
		h.render.Render(w, "profile/two-factor/configure", map[string]interface{}{
			"Errors": map[string]string{verifyCodeField: "Enter your verification code"},
		})
		return
	}

	if err := h.adminusers.ActivateSecondFactor(r.Context(), UserID(r), code, correlationID); err != nil {
		apiErr, ok := err.(*adminusers.APIError)
		if ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			h.render.Render(w, "profile/two-factor/configure", map[string]interface{}{
				"Errors": map[string]string{verifyCodeField: "The verification code you’ve used is incorrect or has expired"},
			})
			return
		}
		glog.Errorf("[requestId=%s] failed to activate second factor - %v", correlationID, err)
		h.render.RenderErrorView(w, "")
		return
	}

	if err := h.sessions.SetFlash(SessionID(r), "Your sign-in method has been updated"); err != nil {
		glog.Warningf("[requestId=%s] failed to set flash - %v", correlationID, err)
	}
	http.Redirect(w, r, pathTwoFactor, http.StatusSeeOther)
}
