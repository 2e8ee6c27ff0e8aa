package domain

import "strconv"

// KeyPrefix namespaces every examdeck key in the store.
const KeyPrefix = "examdeck:"

// Well-known keys.
const (
	// LeaderboardKey is the sorted set mirroring user XP for rank reads.
	LeaderboardKey = KeyPrefix + "leaderboard"
	// DocumentsByDateKey is the sorted set ordering documents by upload time.
	DocumentsByDateKey = KeyPrefix + "docs"
	// SectionIndexName is the FT index over section hashes.
	SectionIndexName = KeyPrefix + "sections:idx"
)

// UserKey returns the hash key for a user record.
func UserKey(email string) string {
	return KeyPrefix + "user:" + email
}

// DocumentKey returns the hash key for a document record.
func DocumentKey(hash string) string {
	return KeyPrefix + "doc:" + hash
}

// SectionKeyPrefix returns the key prefix shared by all of a document's sections.
func SectionKeyPrefix(hash string) string {
	return KeyPrefix + "section:" + hash + ":"
}

// SectionKey returns the hash key for one section of a document.
func SectionKey(hash string, ordinal int) string {
	return SectionKeyPrefix(hash) + strconv.Itoa(ordinal)
}

// AllSectionsPrefix is the prefix the FT index is built over.
const AllSectionsPrefix = KeyPrefix + "section:"
