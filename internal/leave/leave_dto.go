package leave

type SetFilterRequest struct {
	Status string `json:"status" binding:"required,oneof=ALL PENDING APPROVED REJECTED"`
}

type SetSortRequest struct {
	Order string `json:"order" binding:"required,oneof=asc desc"`
}

type SetPageRequest struct {
	Page int `json:"page" binding:"required,min=1"`
}

// ForwardQuery is the query string of the forwarding endpoint.
type ForwardQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1"`
	Status string `form:"status,default=ALL" binding:"oneof=ALL PENDING APPROVED REJECTED"`
}

// ForwardResponse keeps the shape the dashboard client expects from the
// forwarding endpoint, so it is not wrapped in the API envelope.
// TotalPages is never below 1, an empty result reports a single empty page.
type ForwardResponse struct {
	Data        []LeaveRequest `json:"data"`
	Total       int            `json:"total"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
}

type ForwardErrorResponse struct {
	Error string `json:"error"`
}

type DashboardView struct {
	Items      []LeaveRequest `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	Status     StatusFilter   `json:"status"`
	Sort       SortOrder      `json:"sort"`
	Loading    bool           `json:"loading"`
	HasPrev    bool           `json:"hasPrev"`
	HasNext    bool           `json:"hasNext"`
	Error      string         `json:"error,omitempty"`
}
