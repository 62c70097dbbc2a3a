package api

import (
	"fmt"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"selfservice/internal/controllers"
	"selfservice/internal/wizard"
)

const (
	APIRootPath    = "/selfservice"
	Version        = "v1"
	ParamAccountID = "accountId"
)

var ModuleTags = []string{"selfservice"}

// SetupStatusResponse reports how far a gateway account has got
// through Stripe onboarding.
type SetupStatusResponse struct {
	GatewayAccountID string          `json:"gateway_account_id"`
	PaymentProvider  string          `json:"payment_provider"`
	Progress         wizard.Progress `json:"progress"`
	Complete         bool            `json:"complete"`
}

type handler struct {
	connector controllers.ConnectorAPI
}

func newWebService() *restful.WebService {
	webservice := restful.WebService{}

	webservice.Path(fmt.Sprintf("%s/%s", APIRootPath, Version)).
		Produces(restful.MIME_JSON)

	return &webservice
}

// AddToContainer registers the ops API routes.
func AddToContainer(c *restful.Container, connector controllers.ConnectorAPI) error {
	ws := newWebService()
	h := &handler{connector: connector}

	ws.Route(ws.GET("/accounts/{"+ParamAccountID+"}/setup-status").
		To(h.setupStatus).
		Doc("get the Stripe onboarding status for a gateway account").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Param(ws.PathParameter(ParamAccountID, "the gateway account id")).
		Returns(http.StatusOK, "success to get the setup status", &SetupStatusResponse{}))

	c.Add(ws)
	return nil
}

func (h *handler) setupStatus(req *restful.Request, resp *restful.Response) {
	accountID := req.PathParameter(ParamAccountID)
	correlationID := req.Request.Header.Get("X-Request-Id")

	account, err := h.connector.GetAccount(req.Request.Context(), accountID, correlationID)
	if err != nil {
		HandleInternalError(resp, err)
		return
	}
	progress, err := h.connector.GetStripeSetupProgress(req.Request.Context(), accountID, correlationID)
	if err != nil {
		HandleInternalError(resp, err)
		return
	}

	_ = resp.WriteEntity(SetupStatusResponse{
		GatewayAccountID: account.GatewayAccountID,
		PaymentProvider:  account.PaymentProvider,
		Progress:         *progress,
		Complete:         progress.BankAccount && progress.ResponsiblePerson && progress.OrganisationDetails,
	})
}
