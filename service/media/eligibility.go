package mediasvc

// MaxCheckedOut is the per-user cap on simultaneously checked-out items.
const MaxCheckedOut = 2

// CanCheckout reports whether a user with checkedOutCount items may take
// another one.
func CanCheckout(checkedOutCount int) bool {
	return checkedOutCount < MaxCheckedOut
}

// CanPlaceHold decides hold admission. Holds only make sense on unavailable
// items, and a user may not queue for an item they already hold or have
// checked out.
func CanPlaceHold(available, alreadyRelated bool) (bool, ErrCode) {
	if available {
		return false, ErrInvalidHold
	}
	if alreadyRelated {
		return false, ErrDuplicateHold
	}
	return true, ""
}
