package scrape

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/map-harvest/harvest/internal/browser"
	"github.com/map-harvest/harvest/pkg/models"
)

// Probes for the control that reveals the reviews panel.
var reviewTabSelectors = []string{
	`button[aria-label*="Reviews"]`,
	`button[aria-label*="reviews"]`,
	`div[role="tablist"] button[data-tab-index="1"]`,
	`button[jsaction*="reviewChart"]`,
}

// Review card containers, ordered by how often the surface uses them.
var reviewCardSelectors = []string{
	"div.jftiEf",
	"div.MyEned",
	"div[data-review-id]",
}

// ExtractReviews is best-effort: it opens the reviews panel and parses up to
// limit review cards from the document source. Any failure returns what was
// collected so far; it never affects record acceptance.
func ExtractReviews(ctx context.Context, session browser.Session, delays DelayPolicy, limit int) []models.Review {
	if limit <= 0 {
		return nil
	}

	opened := false
	for _, sel := range reviewTabSelectors {
		n, err := session.Count(ctx, sel)
		if err != nil || n == 0 {
			continue
		}
		if err := session.Click(ctx, sel, 0); err != nil {
			log.Debug().Err(err).Str("selector", sel).Msg("reviews tab click failed")
			continue
		}
		opened = true
		break
	}
	if !opened {
		log.Debug().Msg("reviews panel control not found")
		return nil
	}
	delays.Wait(ctx, WaitReveal)

	html, err := session.HTML(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("could not read document source for reviews")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var cards *goquery.Selection
	for _, sel := range reviewCardSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		log.Debug().Msg("no review cards found")
		return nil
	}

	var reviews []models.Review
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		rev := models.Review{
			Author: strings.TrimSpace(card.Find(".d4r55").First().Text()),
			Text:   strings.TrimSpace(card.Find(".wiI7pd").First().Text()),
			When:   strings.TrimSpace(card.Find(".rsqaWe").First().Text()),
		}
		if label, ok := card.Find(`span[role="img"]`).First().Attr("aria-label"); ok {
			if m := integerRe.FindStringSubmatch(label); m != nil {
				if stars, err := strconv.Atoi(m[1]); err == nil && stars >= 1 && stars <= 5 {
					rev.Rating = stars
				}
			}
		}
		if rev.Author == "" && rev.Text == "" {
			return true
		}
		reviews = append(reviews, rev)
		return len(reviews) < limit
	})

	log.Debug().Int("reviews", len(reviews)).Msg("review extraction done")
	return reviews
}
