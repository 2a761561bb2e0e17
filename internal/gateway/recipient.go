package gateway

import (
	"strings"

	"wahook/internal/constants"
)

// NormalizeRecipient appends the direct-chat suffix unless the identifier
// already names a direct or group chat.
func NormalizeRecipient(to string) string {
	if strings.HasSuffix(to, constants.SuffixDirectChat) || strings.HasSuffix(to, constants.SuffixGroupChat) {
		return to
	}
	return to + constants.SuffixDirectChat
}
