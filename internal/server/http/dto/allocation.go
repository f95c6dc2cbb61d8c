package dto

// AllocationRequest asks for one internal code per vendor name. RowIDs, when
// present, must align with VendorNames; the allocated codes are then persisted
// onto those rows.
type AllocationRequest struct {
	OwnerCompany string   `json:"ownerCompany"`
	VendorNames  []string `json:"vendorNames"`
	RowIDs       []int64  `json:"rowIds,omitempty"`
}

// AllocationResponse carries the issued codes in request order.
type AllocationResponse struct {
	Codes []string `json:"codes"`
}
