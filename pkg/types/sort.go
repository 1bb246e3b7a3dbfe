package types

// SortKey selects one of the eight stream orderings.
type SortKey string

const (
	SortMostRecent           SortKey = "most_recent"
	SortOldest               SortKey = "oldest"
	SortTotalAmountHighToLow SortKey = "total_amount_high_to_low"
	SortTotalAmountLowToHigh SortKey = "total_amount_low_to_high"
	SortEndDateFarToClose    SortKey = "end_date_far_to_close"
	SortEndDateCloseToFar    SortKey = "end_date_close_to_far"
	SortClaimableHighToLow   SortKey = "claimable_high_to_low"
	SortClaimableLowToHigh   SortKey = "claimable_low_to_high"
)

// SortKeys lists every ordering in menu order.
var SortKeys = []SortKey{
	SortMostRecent,
	SortOldest,
	SortClaimableHighToLow,
	SortClaimableLowToHigh,
	SortTotalAmountHighToLow,
	SortTotalAmountLowToHigh,
	SortEndDateFarToClose,
	SortEndDateCloseToFar,
}

// Label is the human-readable menu label.
func (k SortKey) Label() string {
	switch k {
	case SortMostRecent:
		return "Most Recent"
	case SortOldest:
		return "Oldest"
	case SortTotalAmountHighToLow:
		return "Total Amount - High to Low"
	case SortTotalAmountLowToHigh:
		return "Total Amount - Low to High"
	case SortEndDateFarToClose:
		return "End Date - Far to Close"
	case SortEndDateCloseToFar:
		return "End Date - Close to Far"
	case SortClaimableHighToLow:
		return "Claimable Amount - High to Low"
	case SortClaimableLowToHigh:
		return "Claimable Amount - Low to High"
	default:
		return string(k)
	}
}

// FilterStatus selects one of the two display partitions.
type FilterStatus string

const (
	FilterActive    FilterStatus = "active"
	FilterCompleted FilterStatus = "completed"
)
