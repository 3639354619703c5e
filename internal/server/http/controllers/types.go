package controllers

// listCursorsResp is the body of GET /v1/cursors.
type listCursorsResp struct {
	Cursors []string `json:"cursors"`
}
