package cart

import (
	"context"
	"sort"
)

// MergeFailure records one guest-cart line that could not be merged.
type MergeFailure struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// MergeReport summarizes a guest-cart merge. A partial merge is acceptable,
// but every dropped line must show up in Failures.
type MergeReport struct {
	Merged   int            `json:"merged"`
	Failures []MergeFailure `json:"failures,omitempty"`
}

func (r *MergeReport) AllMerged() bool { return len(r.Failures) == 0 }

// MergeGuestCart folds a client-held anonymous cart into the authenticated
// user's server cart when the shopper logs in. Lines present in both carts
// sum their quantities (Add increments). The merge is not atomic with login;
// failures are collected per product rather than aborting the rest.
func MergeGuestCart(ctx context.Context, store Store, userID int64, guest map[int64]int) *MergeReport {
	owner := Authenticated(userID)
	report := &MergeReport{}

	ids := make([]int64, 0, len(guest))
	for id := range guest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		quantity := guest[id]
		if err := store.Add(ctx, owner, id, quantity); err != nil {
			report.Failures = append(report.Failures, MergeFailure{
				ProductID: id,
				Quantity:  quantity,
				Reason:    err.Error(),
			})
			continue
		}
		report.Merged++
	}
	return report
}
