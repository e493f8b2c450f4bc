package branding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pakainexus/schoolgate/internal/domain"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ThemeCSS renders the resolved colors as CSS custom properties on the
// document root, so themed pages pick them up from a single stylesheet
// request instead of a per-page script. Invalid color values fall back to
// the defaults rather than leaking arbitrary strings into a stylesheet.
func ThemeCSS(b *domain.Branding) string {
	primary := domain.DefaultPrimaryColor
	secondary := domain.DefaultSecondaryColor
	if b != nil && hexColor.MatchString(b.PrimaryColor) {
		primary = b.PrimaryColor
	}
	if b != nil && hexColor.MatchString(b.SecondaryColor) {
		secondary = b.SecondaryColor
	}

	var sb strings.Builder
	sb.WriteString(":root {\n")
	fmt.Fprintf(&sb, "  --primary: %s;\n", primary)
	fmt.Fprintf(&sb, "  --secondary: %s;\n", secondary)
	sb.WriteString("}\n")
	return sb.String()
}
