package models

import (
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
)

// ShowIndexLimit bounds the number of passes listed per show.
const ShowIndexLimit = 500

// ShowIndex lists the passes issued for one show in issuance order.
type ShowIndex struct {
	ShowID  id.ShowID
	PassIDs []id.PassID
}

// Len is the number of passes issued for the show.
func (i ShowIndex) Len() int {
	return len(i.PassIDs)
}

// Append returns a new index with passID at the end. The receiver is never
// modified; a full index rejects the append instead of dropping it.
func (i ShowIndex) Append(passID id.PassID) (ShowIndex, error) {
	if len(i.PassIDs) >= ShowIndexLimit {
		return i, dErrors.New(dErrors.CodeIndexFull, "show pass list is full")
	}
	ids := make([]id.PassID, len(i.PassIDs), len(i.PassIDs)+1)
	copy(ids, i.PassIDs)
	return ShowIndex{ShowID: i.ShowID, PassIDs: append(ids, passID)}, nil
}
