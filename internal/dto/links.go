package dto

// LinkChildrenRequest captures PUT /admin/parents/:id/children payload.
// Either child_ids or the comma separated child_ids_raw may be supplied; the list wins.
type LinkChildrenRequest struct {
	ChildIDs    []int64 `json:"child_ids"`
	ChildIDsRaw string  `json:"child_ids_raw"`
}
