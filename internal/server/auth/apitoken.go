package auth

import "github.com/dmitrijs2005/credstack/internal/common"

// apiTokenBytes is the entropy of an opaque API token.
const apiTokenBytes = 32

// GenerateAPIToken returns 32 random bytes encoded as unpadded base64url.
func GenerateAPIToken() (string, error) {
	return common.MakeRandURLSafeString(apiTokenBytes)
}
