package bot

import (
	"errors"
	"strings"

	"rtmbot/internal/taskctx"
)

// NormalizeUserID reduces a chat address to the identity owning the
// user's state: "user@host/resource" becomes "user@host".
func NormalizeUserID(id string) string {
	id = strings.TrimSpace(id)
	if at := strings.IndexByte(id, '@'); at >= 0 {
		if slash := strings.IndexByte(id[at:], '/'); slash >= 0 {
			id = id[:at+slash]
		}
	}
	return id
}

func isUnknownID(err error) bool {
	var unknown *taskctx.UnknownIDError
	return errors.As(err, &unknown)
}
