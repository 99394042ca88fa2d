package notification

import "strings"

var topicReplacer = strings.NewReplacer("@", "_", ".", "_")

// Topic returns the push topic a user's devices subscribe to:
// "user_" followed by the email with every '@' and '.' replaced by '_'.
func Topic(email string) string {
	return "user_" + topicReplacer.Replace(email)
}
