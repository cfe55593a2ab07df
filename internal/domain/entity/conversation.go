package entity

import "strings"

// ConversationKey derives the canonical identifier for a two-party
// conversation. Both participants compute the same key without coordination:
// the lower identifier always sorts first, so ConversationKey(a, b) ==
// ConversationKey(b, a). A self-chat pair still resolves deterministically.
func ConversationKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "_" + b
}

// KeyNamesParticipant reports whether userID is one of the two identifiers a
// conversation key was derived from.
func KeyNamesParticipant(key, userID string) bool {
	return strings.HasPrefix(key, userID+"_") || strings.HasSuffix(key, "_"+userID)
}

// OtherParticipant returns the participant that is not userID, or "" when the
// list does not contain a second party.
func OtherParticipant(participants []string, userID string) string {
	for _, p := range participants {
		if p != userID {
			return p
		}
	}
	return ""
}
