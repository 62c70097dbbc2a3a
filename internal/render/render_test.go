package render

import (
	"net/http/httptest"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNewParsesEveryTemplate(t *testing.T) {
	r, err := New()
	assert.NilError(t, err)

	for _, name := range []string{
		"error",
		"error-with-link",
		"stripe-setup/bank-details/index",
		"stripe-setup/bank-details/check-your-answers",
		"stripe-setup/responsible-person/index",
		"stripe-setup/responsible-person/check-your-answers",
		"stripe-setup/check-org-details/index",
		"your-psp/index",
		"your-psp/flex",
		"registration/register",
		"registration/confirm",
		"profile/two-factor/index",
		"profile/two-factor/phone",
		"profile/two-factor/configure",
		"dashboard/index",
		"dashboard/demo-service",
		"dashboard/activity",
	} {
		_, ok := r.templates[name]
		assert.Assert(t, ok, "missing template %q", name)
	}
}

func TestRenderUnknownTemplateFallsBackToErrorView(t *testing.T) {
	r, err := New()
	assert.NilError(t, err)

	rec := httptest.NewRecorder()
	r.Render(rec, "no/such/page", nil)

	assert.Assert(t, strings.Contains(rec.Body.String(), DefaultErrorMessage))
}

func TestRenderErrorViewDefaultMessage(t *testing.T) {
	r, err := New()
	assert.NilError(t, err)

	rec := httptest.NewRecorder()
	r.RenderErrorView(rec, "")

	assert.Assert(t, strings.Contains(rec.Body.String(), DefaultErrorMessage))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderErrorViewCustomMessage(t *testing.T) {
	r, err := New()
	assert.NilError(t, err)

	rec := httptest.NewRecorder()
	r.RenderErrorView(rec, "Please try again or contact support team")

	assert.Assert(t, strings.Contains(rec.Body.String(), "Please try again or contact support team"))
}

func TestRenderEscapesUserInput(t *testing.T) {
	r, err := New()
	assert.NilError(t, err)

	rec := httptest.NewRecorder()
	r.Render(rec, "stripe-setup/bank-details/index", map[string]interface{}{
		"SortCode":      `"><script>alert(1)</script>`,
		"AccountNumber": "",
		"Errors":        map[string]string{},
	})

	body := rec.Body.String()
	assert.Assert(t, !strings.Contains(body, "<script>alert(1)</script>"))
}
