package browser

import (
	"sort"
	"strings"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// Viewport is a named screen size.
type Viewport struct {
	Width, Height int
}

// Viewports are the device presets scenarios may name.
var Viewports = map[string]Viewport{
	"mobile":      {375, 667},
	"tablet":      {768, 1024},
	"desktop":     {1280, 720},
	"iphone-6":    {375, 667},
	"iphone-x":    {375, 812},
	"samsung-s10": {360, 760},
	"ipad-2":      {768, 1024},
	"ipad-mini":   {768, 1024},
	"macbook-13":  {1280, 800},
	"macbook-15":  {1440, 900},
	"macbook-16":  {1536, 960},
}

// ViewportNames lists the presets in sorted order.
func ViewportNames() []string {
	names := make([]string, 0, len(Viewports))
	for n := range Viewports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupViewport resolves a preset name. Unknown names are a configuration error.
func LookupViewport(name string) (Viewport, error) {
	v, ok := Viewports[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Viewport{}, errs.Newf(errs.InvalidConfiguration, "unknown viewport %q (known: %s)", name, strings.Join(ViewportNames(), ", "))
	}
	return v, nil
}

// SetViewport resizes the page.
func (s *Session) SetViewport(v Viewport) error {
	if err := s.Page.SetViewportSize(v.Width, v.Height); err != nil {
		return errs.Wrap(errs.Unavailable, "set viewport", err)
	}
	return nil
}
