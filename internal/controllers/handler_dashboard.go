package controllers

import (
	"net/http"
	"time"

	"github.com/golang/glog"

	"selfservice/internal/clients/products"
	"selfservice/internal/wizard"
)

// GetDashboard renders the account dashboard with setup progress.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	account, err := h.connector.GetAccount(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get gateway account - %v", correlationID, err)
		h.render.RenderErrorView(w, "")
		return
	}
	progress, err := h.connector.GetStripeSetupProgress(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get stripe setup progress - %v", correlationID, err)
		progress = &wizard.Progress{}
	}
	flash, _ := h.sessions.ConsumeFlash(SessionID(r))

	h.render.Render(w, "dashboard/index", map[string]interface{}{
		"ServiceName": account.ServiceName,
		"Progress":    progress,
		"Flash":       flash,
	})
}

// GetDemoServiceLinks lists the account's prototype links.
func (h *Handler) GetDemoServiceLinks(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	all, err := h.products.GetByGatewayAccountID(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] Get PROTOTYPE product by gateway account id failed - %v", correlationID, err)
		h.render.RenderErrorView(w, "")
		return
	}
	prototypes := products.FilterPrototypes(all)

	h.render.Render(w, "dashboard/demo-service", map[string]interface{}{
		"Products":       prototypes,
		"ProductsLength": len(prototypes),
		"CreatePage":     pathDashboard(id),
	})
}

// activityRow is one history record with a display time.
type activityRow struct {
	Step    string
	Outcome string
	Time    string
}

// GetActivity lists recent setup submissions for the account.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)

	if h.history == nil {
		h.render.Render(w, "dashboard/activity", map[string]interface{}{"Records": []activityRow{}})
		return
	}

	records, err := h.history.QueryByAccount(id, 50)
	if err != nil {
		glog.Errorf("[requestId=%s] failed to query setup history - %v", CorrelationID(r), err)
		h.render.RenderErrorView(w, "")
		return
	}

	rows := make([]activityRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, activityRow{
			Step:    rec.Step,
			Outcome: string(rec.Outcome),
			Time:    time.Unix(rec.Time, 0).UTC().Format("2 Jan 2006 15:04"),
		})
	}
	h.render.Render(w, "dashboard/activity", map[string]interface{}{"Records": rows})
}
