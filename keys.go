package invcache

import "fmt"

// Key prefixes for the users resource.
const (
	PrefixUserList = "user_list"
	PrefixUser     = "user"

	keySep = "_"
)

// Key returns the key of a collection entry: the prefix itself.
func Key(prefix string) string { return prefix }

// KeyFor returns prefix + "_" + id. It is pure and deterministic; distinct
// (prefix, id) pairs map to distinct keys as long as ids do not embed the
// separator in a way that mimics another prefix.
func KeyFor(prefix string, id any) string {
	return prefix + keySep + fmt.Sprint(id)
}

// ListKey is the key of the cached users list.
func ListKey() string { return Key(PrefixUserList) }

// UserKey is the key of one cached user.
func UserKey(id uint64) string { return KeyFor(PrefixUser, id) }
