package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions turns a credentials setting into client options. The value
// may be inline service account JSON or a path to a key file; empty means
// application default credentials.
func ClientOptions(credentials string) []option.ClientOption {
	creds := strings.TrimSpace(credentials)
	switch {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}
