package wire

import (
	"fmt"
	"net/url"
	"strings"
)

// externalSchemes is the fixed scheme whitelist for external redirects.
var externalSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ftps": true, "mailto": true,
	"news": true, "irc": true, "gopher": true, "nntp": true, "feed": true,
	"telnet": true, "mms": true, "rtsp": true, "svn": true, "tel": true,
	"fax": true, "xmpp": true,
}

// ValidateLocalRedirect enforces that local redirects begin with a
// single "/", not "//", and contain no "\".
func ValidateLocalRedirect(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("wire: local redirect %q must start with /", path)
	}
	if strings.HasPrefix(path, "//") {
		return fmt.Errorf("wire: local redirect %q must not start with //", path)
	}
	if strings.Contains(path, `\`) {
		return fmt.Errorf("wire: local redirect %q must not contain \\", path)
	}
	return nil
}

// ValidateExternalRedirect enforces the external scheme whitelist. A
// scheme outside the whitelist is rejected; this package has no variant
// that accepts other schemes.
func ValidateExternalRedirect(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("wire: invalid external redirect %q: %w", target, err)
	}
	if !externalSchemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("wire: external redirect scheme %q is not in the allowed list", u.Scheme)
	}
	return nil
}
