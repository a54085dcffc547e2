package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"schikko/apperr"
	"schikko/ledger"
	"schikko/models"
	"schikko/throttle"
)

// actionInput is the union of all action payloads.
type actionInput struct {
	Action    string `json:"action"`
	SessionID string `json:"sessionId"`

	PersonID string `json:"personId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Count    int    `json:"count"`
	RuleID   string `json:"ruleId"`
	Text     string `json:"text"`
	Position int    `json:"position"`
	Date     string `json:"date"`
	Days     int    `json:"durationDays"`
	URL      string `json:"url"`
	Required *bool  `json:"required"`
	Grace    int    `json:"graceHours"`
	Cleanup  string `json:"cleanup"`
	LogID    string `json:"logId"`
	Limit    int    `json:"limit"`
	Request  string `json:"requestId"`
	Pending  bool   `json:"pendingOnly"`
}

type actionCall struct {
	h     *Handler
	in    actionInput
	actor string
}

type action struct {
	run func(ctx context.Context, a actionCall) (gin.H, string, error)
	// mutating actions are written to the activity log with the returned details
	mutates bool
}

// Action is the single entry point for administrator operations. The caller
// needs a visitor identity, a live session bound to it and room in the
// per-identity action limit.
func (h *Handler) Action(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}
	var in actionInput
	if !bindJSON(c, &in) {
		return
	}
	act, known := h.actions[in.Action]
	if !known {
		fail(c, apperr.InvalidArgument("unknown action"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Throttle.Allow(ctx, throttle.ActionKey(uid), h.Limits.Action.Count, h.Limits.Action.Window); err != nil {
		fail(c, err)
		return
	}
	if _, err := h.Sessions.Validate(ctx, in.SessionID, uid); err != nil {
		fail(c, err)
		return
	}

	out, details, err := act.run(ctx, actionCall{h: h, in: in, actor: uid})
	if err != nil {
		h.Logger.Debug("action failed", "component", "http", "action", in.Action, "err", err)
		fail(c, err)
		return
	}
	if act.mutates {
		h.Ledger.Record(ctx, in.Action, uid, details)
	}
	if out == nil {
		out = gin.H{}
	}
	out["success"] = true
	c.JSON(http.StatusOK, out)
}

func actionTable() map[string]action {
	return map[string]action{
		"addStripe":       {run: addStripe, mutates: true},
		"removeStripe":    {run: removeStripe, mutates: true},
		"addFulfilled":    {run: addFulfilled, mutates: true},
		"removeFulfilled": {run: removeFulfilled, mutates: true},

		"addPerson":    {run: addPerson, mutates: true},
		"renamePerson": {run: renamePerson, mutates: true},
		"deletePerson": {run: deletePerson, mutates: true},
		"setRole":      {run: setRole, mutates: true},

		"addRule":    {run: addRule, mutates: true},
		"updateRule": {run: updateRule, mutates: true},
		"deleteRule": {run: deleteRule, mutates: true},
		"listRules":  {run: listRules},

		"setEventDate":        {run: setEventDate, mutates: true},
		"setCalendarUrl":      {run: setCalendarURL, mutates: true},
		"setApprovalRequired": {run: setApprovalRequired, mutates: true},
		"setAutoUnset":        {run: setAutoUnset, mutates: true},
		"getSettings":         {run: getSettings},

		"listLogs":  {run: listLogs},
		"deleteLog": {run: deleteLog},
		"clearLogs": {run: clearLogs},

		"listDrinkRequests":   {run: listDrinkRequests},
		"approveDrinkRequest": {run: approveDrinkRequest, mutates: true},
		"rejectDrinkRequest":  {run: rejectDrinkRequest, mutates: true},
	}
}

func addStripe(ctx context.Context, a actionCall) (gin.H, string, error) {
	n, err := a.h.Ledger.AddEvents(ctx, a.in.PersonID, models.StripeNormal, ledger.ClampBatch(a.in.Count))
	if err != nil {
		return nil, "", err
	}
	return gin.H{"added": n}, fmt.Sprintf("%s +%d", a.in.PersonID, n), nil
}

func removeStripe(ctx context.Context, a actionCall) (gin.H, string, error) {
	res, err := a.h.Ledger.RemoveLastNormal(ctx, a.in.PersonID)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"result": res}, fmt.Sprintf("%s -%d (repaired %d)", a.in.PersonID, res.Removed, res.Repaired), nil
}

func addFulfilled(ctx context.Context, a actionCall) (gin.H, string, error) {
	n, err := a.h.Ledger.Fulfill(ctx, a.in.PersonID, ledger.ClampBatch(a.in.Count))
	if err != nil {
		return nil, "", err
	}
	return gin.H{"added": n}, fmt.Sprintf("%s +%d fulfilled", a.in.PersonID, n), nil
}

func removeFulfilled(ctx context.Context, a actionCall) (gin.H, string, error) {
	res, err := a.h.Ledger.RemoveLastFulfilled(ctx, a.in.PersonID, ledger.ClampBatch(a.in.Count))
	if err != nil {
		return nil, "", err
	}
	return gin.H{"result": res}, fmt.Sprintf("%s -%d fulfilled", a.in.PersonID, res.Removed), nil
}

func addPerson(ctx context.Context, a actionCall) (gin.H, string, error) {
	p, err := a.h.Ledger.AddPerson(ctx, a.in.Name, models.Role(a.in.Role))
	if err != nil {
		return nil, "", err
	}
	return gin.H{"person": p}, p.Name, nil
}

func renamePerson(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.RenamePerson(ctx, a.in.PersonID, a.in.Name); err != nil {
		return nil, "", err
	}
	return nil, a.in.PersonID + " -> " + a.in.Name, nil
}

func deletePerson(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.DeletePerson(ctx, a.in.PersonID); err != nil {
		return nil, "", err
	}
	return nil, a.in.PersonID, nil
}

func setRole(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.SetRole(ctx, a.in.PersonID, models.Role(a.in.Role)); err != nil {
		return nil, "", err
	}
	return nil, a.in.PersonID + " role=" + a.in.Role, nil
}

func addRule(ctx context.Context, a actionCall) (gin.H, string, error) {
	r, err := a.h.Ledger.AddRule(ctx, a.in.Text)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"rule": r}, r.ID, nil
}

func updateRule(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.UpdateRule(ctx, a.in.RuleID, a.in.Text, a.in.Position); err != nil {
		return nil, "", err
	}
	return nil, a.in.RuleID, nil
}

func deleteRule(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.DeleteRule(ctx, a.in.RuleID); err != nil {
		return nil, "", err
	}
	return nil, a.in.RuleID, nil
}

func listRules(ctx context.Context, a actionCall) (gin.H, string, error) {
	rules, err := a.h.Ledger.ListRules(ctx)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"rules": rules}, "", nil
}

func setEventDate(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.SetEventDate(ctx, a.in.Date, a.in.Days); err != nil {
		return nil, "", err
	}
	return nil, fmt.Sprintf("%s for %d days", a.in.Date, a.in.Days), nil
}

func setCalendarURL(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.SetCalendarURL(ctx, a.in.URL); err != nil {
		return nil, "", err
	}
	return nil, a.in.URL, nil
}

func setApprovalRequired(ctx context.Context, a actionCall) (gin.H, string, error) {
	if a.in.Required == nil {
		return nil, "", apperr.InvalidArgument("required is missing")
	}
	if err := a.h.Ledger.SetApprovalRequired(ctx, *a.in.Required); err != nil {
		return nil, "", err
	}
	return nil, fmt.Sprintf("required=%t", *a.in.Required), nil
}

func setAutoUnset(ctx context.Context, a actionCall) (gin.H, string, error) {
	if err := a.h.Ledger.SetAutoUnset(ctx, a.in.Grace, models.CleanupPolicy(a.in.Cleanup)); err != nil {
		return nil, "", err
	}
	return nil, fmt.Sprintf("grace=%dh cleanup=%s", a.in.Grace, a.in.Cleanup), nil
}

func getSettings(ctx context.Context, a actionCall) (gin.H, string, error) {
	p, err := a.h.Ledger.Policy(ctx)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"settings": p}, "", nil
}

func listLogs(ctx context.Context, a actionCall) (gin.H, string, error) {
	logs, err := a.h.Ledger.ListLogs(ctx, a.in.Limit)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"logs": logs}, "", nil
}

func deleteLog(ctx context.Context, a actionCall) (gin.H, string, error) {
	return nil, "", a.h.Ledger.DeleteLog(ctx, a.in.LogID)
}

func clearLogs(ctx context.Context, a actionCall) (gin.H, string, error) {
	n, err := a.h.Ledger.ClearLogs(ctx)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"deleted": n}, "", nil
}

func listDrinkRequests(ctx context.Context, a actionCall) (gin.H, string, error) {
	reqs, err := a.h.Drinks.List(ctx, a.in.Pending)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"requests": reqs}, "", nil
}

func approveDrinkRequest(ctx context.Context, a actionCall) (gin.H, string, error) {
	req, err := a.h.Drinks.Approve(ctx, a.in.Request, a.actor)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"request": req}, fmt.Sprintf("%s applied %d/%d", req.ID, req.Applied, req.Amount), nil
}

func rejectDrinkRequest(ctx context.Context, a actionCall) (gin.H, string, error) {
	req, err := a.h.Drinks.Reject(ctx, a.in.Request, a.actor)
	if err != nil {
		return nil, "", err
	}
	return gin.H{"request": req}, req.ID, nil
}
