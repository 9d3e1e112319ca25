package auth

import "github.com/JeanCalmon10/madr/internal/domain/user"

// CanModifySelf gates user profile update/delete: a user may only act on
// their own record. Catalog records (books, romancists) carry no owner, so
// mutating them needs only a resolved identity and never goes through this
// check. That asymmetry is deliberate.
func CanModifySelf(identity user.User, targetID int64) bool {
	return identity.ID == targetID
}
