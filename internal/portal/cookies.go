package portal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// snapshotCookie is one persisted cookie. The snapshot only carries
// name/value pairs per origin; that is all the portal needs to
// recognize a session.
type snapshotCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cookieSnapshot maps an origin URL to its cookies.
type cookieSnapshot map[string][]snapshotCookie

// MarshalCookies serializes the client's cookie jar into an opaque JSON
// blob suitable for storing against the user record.
func (c *Client) MarshalCookies() (string, error) {
	snapshot := cookieSnapshot{}

	for _, origin := range c.origins() {
		u, err := url.Parse(origin)
		if err != nil {
			return "", fmt.Errorf("parse origin %q: %w", origin, err)
		}

		cookies := c.jar.Cookies(u)
		if len(cookies) == 0 {
			continue
		}

		entries := make([]snapshotCookie, 0, len(cookies))
		for _, cookie := range cookies {
			entries = append(entries, snapshotCookie{Name: cookie.Name, Value: cookie.Value})
		}
		snapshot[origin] = entries
	}

	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal cookie snapshot: %w", err)
	}
	return string(encoded), nil
}

// restoreCookies loads a snapshot produced by MarshalCookies into the
// jar. Unknown origins in the blob are ignored.
func (c *Client) restoreCookies(blob string) error {
	if blob == "" {
		return nil
	}

	var snapshot cookieSnapshot
	if err := json.Unmarshal([]byte(blob), &snapshot); err != nil {
		return fmt.Errorf("unmarshal cookie snapshot: %w", err)
	}

	for origin, entries := range snapshot {
		u, err := url.Parse(origin)
		if err != nil {
			continue
		}

		cookies := make([]*http.Cookie, 0, len(entries))
		for _, entry := range entries {
			cookies = append(cookies, &http.Cookie{
				Name:  entry.Name,
				Value: entry.Value,
				Path:  "/",
			})
		}
		c.jar.SetCookies(u, cookies)
	}

	return nil
}

func (c *Client) origins() []string {
	origins := make([]string, 0, 2)
	if c.eps.LoginOrigin != "" {
		origins = append(origins, c.eps.LoginOrigin)
	}
	if c.eps.AppOrigin != "" && c.eps.AppOrigin != c.eps.LoginOrigin {
		origins = append(origins, c.eps.AppOrigin)
	}
	return origins
}
