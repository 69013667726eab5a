package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"venuescraper/internal/store"
)

// notAvailable is recorded for any field whose element is missing.
const notAvailable = "N/A"

// fieldXPaths locate the venue detail fields. The site renders a React app
// with no stable class names, so positional XPaths are the only handle.
var fieldXPaths = []struct {
	key   string
	xpath string
}{
	{"name", "//*[@id='root']/div/div/div/div[4]/div[1]/div[1]/h1"},
	{"price", "//*[@id='root']/div/div/div/div[4]/div[1]/div[1]/div[3]/div/div[1]"},
	{"timing", "//*[@id='root']/div/div/div/div[4]/div[1]/div[1]/div[3]/div/div[2]"},
	{"address", "//*[@id='root']/div/div/div/div[4]/div[1]/div[3]/div[1]/div/div"},
	{"rating", "//*[@id='root']/div/div/div/div[4]/div[1]/div[3]/div[3]/div/div/div/span[1]"},
	{"raters", "//*[@id='root']/div/div/div/div[4]/div[1]/div[3]/div[3]/div/div/div/span[2]"},
	{"about_venue", "//*[@id='root']/div/div/div/div[4]/div[2]/div/div"},
	{"available_sports", "//*[@id='root']/div/div/div/div[4]/div[3]"},
	{"highlights", "//*[@id='root']/div/div/div/div[4]/div[4]/div"},
	{"amenities", "//*[@id='root']/div/div/div/div[4]/div[5]"},
	{"offer", "//*[@id='root']/div/div/div/div[4]/div[6]"},
}

// modalXPaths locate fields only reachable through modal dialogs.
var modalXPaths = []struct {
	key     string
	openBtn string
	content string
	closeBtn string
}{
	{
		key:      "facilities",
		openBtn:  "//*[@id='root']/div/div/div/div[4]/div[7]",
		content:  "/html/body/div[4]/div[3]/div/div/div/div[2]",
		closeBtn: "/html/body/div[4]/div[3]/div/div/div/div[1]/div/div[3]/svg",
	},
	{
		key:      "venue_rules",
		openBtn:  "//*[@id='root']/div/div/div/div[4]/div[8]",
		content:  "/html/body/div[4]/div[3]/div/div/div/div[2]",
		closeBtn: "/html/body/div[4]/div[3]/div/div/div/div[1]/div/div[3]/svg",
	},
}

// extractVenue reads every field off the currently open venue page.
func (s *Scraper) extractVenue(ctx context.Context, page *rod.Page) store.Venue {
	fields := make(map[string]string, len(fieldXPaths)+len(modalXPaths))

	for _, f := range fieldXPaths {
		fields[f.key] = s.extractField(page, f.xpath, 5*time.Second)
	}
	for _, m := range modalXPaths {
		fields[m.key] = s.extractModal(ctx, page, m.openBtn, m.content, m.closeBtn)
	}

	s.log.Debug("extracted venue", zap.String("name", fields["name"]))

	return store.Venue{
		Name:       fields["name"],
		Price:      fields["price"],
		Timing:     fields["timing"],
		Address:    fields["address"],
		Rating:     fields["rating"],
		Raters:     fields["raters"],
		About:      fields["about_venue"],
		Sports:     fields["available_sports"],
		Highlights: fields["highlights"],
		Amenities:  fields["amenities"],
		Offer:      fields["offer"],
		Facilities: fields["facilities"],
		VenueRules: fields["venue_rules"],
	}
}

// extractField waits for an element and returns its readable text, or "N/A".
func (s *Scraper) extractField(page *rod.Page, xpath string, timeout time.Duration) string {
	el, err := page.Timeout(timeout).ElementX(xpath)
	if err != nil {
		return notAvailable
	}
	return elementText(el.CancelTimeout())
}

// extractModal opens a modal dialog, reads its content, and closes it again.
func (s *Scraper) extractModal(ctx context.Context, page *rod.Page, openBtn, content, closeBtn string) string {
	open, err := page.Timeout(3 * time.Second).ElementX(openBtn)
	if err != nil {
		return notAvailable
	}
	if !safeClick(open.CancelTimeout()) {
		return notAvailable
	}
	sleep(ctx, 2*time.Second)

	value := notAvailable
	if el, err := page.Timeout(5 * time.Second).ElementX(content); err == nil {
		value = elementText(el.CancelTimeout())
	}

	if closeEl, err := page.Timeout(3 * time.Second).ElementX(closeBtn); err == nil {
		if safeClick(closeEl.CancelTimeout()) {
			sleep(ctx, time.Second)
		}
	}
	return value
}

// elementText pulls both the raw text and the inner HTML of an element and
// picks the better rendering via CleanText.
func elementText(el *rod.Element) string {
	text, err := el.Text()
	if err != nil {
		return notAvailable
	}
	inner, err := el.HTML()
	if err != nil {
		inner = ""
	}
	return CleanText(inner, text)
}

// blockElements force a line break when converting markup to text.
var blockElements = map[string]bool{
	"div": true, "li": true, "p": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var (
	multiNewline = regexp.MustCompile(`\n\s*\n`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
)

// CleanText derives readable text for an element given its inner HTML and
// its plain text content. The HTML rendering preserves the structure of
// lists and headings; it is preferred unless tag stripping lost a
// significant part of the content, in which case the plain text wins.
func CleanText(innerHTML, plain string) string {
	plain = strings.TrimSpace(plain)
	if plain == "" && innerHTML == "" {
		return notAvailable
	}

	if innerHTML != "" {
		formatted := htmlToText(innerHTML)
		if formatted != "" && len(formatted) >= len(plain)*8/10 {
			return formatted
		}
	}

	if plain == "" {
		return notAvailable
	}
	return collapseWhitespace(plain)
}

// htmlToText walks the markup, emitting text nodes and turning block
// elements into line breaks.
func htmlToText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(doc)

	return collapseWhitespace(sb.String())
}

func collapseWhitespace(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// CityURL builds the venue listing URL for a city slug.
func CityURL(baseURL, city string) string {
	return fmt.Sprintf("%s/sports-venues/%s/sports/all", strings.TrimSuffix(baseURL, "/"), city)
}
