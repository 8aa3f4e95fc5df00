package portal

import (
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

const loginFormSelector = "#casLoginForm input"

// parseLoginForm scrapes the CAS login form and returns its fields as
// opaque key-value pairs. The form embeds per-session anti-forgery
// tokens, so it must be scraped fresh on every login and never cached.
func parseLoginForm(r io.Reader) (url.Values, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse login page: %w", err)
	}

	inputs := doc.Find(loginFormSelector)
	if inputs.Length() == 0 {
		return nil, fmt.Errorf("%w: login form not found", ErrUnexpectedPayload)
	}

	form := url.Values{}
	inputs.Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		form.Set(name, s.AttrOr("value", ""))
	})

	return form, nil
}
