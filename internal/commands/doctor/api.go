package doctor

import (
	"context"
	"fmt"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// APICheck queries the viewer and the first session page.
type APICheck struct {
	source oauthsession.Source
	userID string
}

// NewAPICheck creates a connectivity check. userID may be empty, in which
// case the viewer's ID is used.
func NewAPICheck(source oauthsession.Source, userID string) *APICheck {
	return &APICheck{source: source, userID: userID}
}

func (c *APICheck) Name() string {
	return "Session API"
}

func (c *APICheck) RequiresPrevious() bool { return true }

func (c *APICheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	viewer, err := c.source.Viewer(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Viewer",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "Viewer",
		Status: StatusPass,
		Detail: fmt.Sprintf("%s (%s)", viewer.Username, viewer.ID),
	})

	userID := c.userID
	if userID == "" {
		userID = viewer.ID
	}

	page, err := c.source.ListSessions(ctx, oauthsession.PageRequest{
		UserID: userID,
		First:  1,
		State:  oauthsession.FilterAll,
	})
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Sessions",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	detail := fmt.Sprintf("%d session(s) for %s", page.TotalCount, userID)
	if page.TotalCount == 0 && len(page.Edges) > 0 {
		detail = "readable for " + userID
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "Sessions",
		Status: StatusPass,
		Detail: detail,
	})

	return result
}
