package kvstore

import "fmt"

// Record kinds. Every record carries an explicit discriminant so listings over
// a shared prefix can be filtered without inspecting record shape.
const (
	KindProfile  = "profile"
	KindCategory = "category"
	KindNote     = "note"
)

// ProfileKey returns the key for a profile record.
func ProfileKey(userID, profileID string) string {
	return fmt.Sprintf("user:%s:profile:%s", userID, profileID)
}

// CategoryKey returns the key for a category record under a profile.
func CategoryKey(userID, profileID, categoryID string) string {
	return fmt.Sprintf("user:%s:profile:%s:category:%s", userID, profileID, categoryID)
}

// NoteKey returns the key for a note record under a profile.
func NoteKey(userID, profileID, noteID string) string {
	return fmt.Sprintf("user:%s:profile:%s:note:%s", userID, profileID, noteID)
}

// UserPrefix returns the prefix matching all of a user's profiles, categories,
// and notes intermixed. Callers filter by Kind.
func UserPrefix(userID string) string {
	return fmt.Sprintf("user:%s:profile:", userID)
}

// ProfileChildPrefix returns the prefix matching a profile's categories and
// notes but not the profile record itself. The trailing colon keeps a profile
// id that happens to prefix another id from matching the wrong subtree.
func ProfileChildPrefix(userID, profileID string) string {
	return ProfileKey(userID, profileID) + ":"
}
