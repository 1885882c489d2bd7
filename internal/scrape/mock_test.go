package scrape

import (
	"context"
	"fmt"
	"time"
)

// fakeElement is one scripted DOM element.
type fakeElement struct {
	text  string
	attrs map[string]string
}

// fakeSession is a scripted stand-in for the browser collaborator. The
// result list renders `rendered` entries and grows by `growBy` on every
// scroll gesture; clicking result entry i switches the session to that
// candidate's detail DOM, address, and document source.
type fakeSession struct {
	listDOM    map[string][]fakeElement
	detailDOM  []map[string][]fakeElement
	detailURL  []string
	detailHTML []string

	rendered    int
	growBy      int
	maxRendered int

	waitVisibleErr error
	navigateErr    error
	submitErr      error

	// clickFailures[i] is how many click attempts on entry i fail before one
	// succeeds.
	clickFailures map[int]int

	current int // -1 = list view

	navigated       []string
	submitted       []string
	wheelDeltas     []int
	scrollIntoViews []string
	closed          bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		listDOM:       map[string][]fakeElement{},
		clickFailures: map[int]int{},
		current:       -1,
	}
}

func (f *fakeSession) dom() map[string][]fakeElement {
	if f.current >= 0 && f.current < len(f.detailDOM) {
		return f.detailDOM[f.current]
	}
	return f.listDOM
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navigateErr
}

func (f *fakeSession) SubmitText(_ context.Context, selector, text string) error {
	f.submitted = append(f.submitted, text)
	return f.submitErr
}

func (f *fakeSession) WaitVisible(context.Context, string, time.Duration) error {
	return f.waitVisibleErr
}

func (f *fakeSession) Count(_ context.Context, selector string) (int, error) {
	if selector == resultLinkSelector {
		return f.rendered, nil
	}
	return len(f.dom()[selector]), nil
}

func (f *fakeSession) Text(_ context.Context, selector string, index int) (string, bool, error) {
	els := f.dom()[selector]
	if index >= len(els) {
		return "", false, nil
	}
	return els[index].text, true, nil
}

func (f *fakeSession) Attribute(_ context.Context, selector string, index int, name string) (string, bool, error) {
	els := f.dom()[selector]
	if index >= len(els) {
		return "", false, nil
	}
	val, ok := els[index].attrs[name]
	return val, ok, nil
}

func (f *fakeSession) Click(_ context.Context, selector string, index int) error {
	if selector == resultLinkSelector {
		if f.clickFailures[index] > 0 {
			f.clickFailures[index]--
			return fmt.Errorf("click intercepted at %s[%d]", selector, index)
		}
		if index >= f.rendered {
			return fmt.Errorf("no element at %s[%d]", selector, index)
		}
		f.current = index
		return nil
	}
	if len(f.dom()[selector]) == 0 {
		return fmt.Errorf("no element at %s[0]", selector)
	}
	return nil
}

func (f *fakeSession) ScrollWheel(_ context.Context, deltaY int) error {
	f.wheelDeltas = append(f.wheelDeltas, deltaY)
	f.rendered += f.growBy
	if f.maxRendered > 0 && f.rendered > f.maxRendered {
		f.rendered = f.maxRendered
	}
	return nil
}

func (f *fakeSession) ScrollIntoView(_ context.Context, selector string) error {
	f.scrollIntoViews = append(f.scrollIntoViews, selector)
	return nil
}

func (f *fakeSession) Location(context.Context) (string, error) {
	if f.current >= 0 && f.current < len(f.detailURL) {
		return f.detailURL[f.current], nil
	}
	return "https://www.google.com/maps/search/", nil
}

func (f *fakeSession) HTML(context.Context) (string, error) {
	if f.current >= 0 && f.current < len(f.detailHTML) {
		return f.detailHTML[f.current], nil
	}
	return "<html></html>", nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

// wheelCount returns how many wheel gestures used the given delta.
func (f *fakeSession) wheelCount(delta int) int {
	n := 0
	for _, d := range f.wheelDeltas {
		if d == delta {
			n++
		}
	}
	return n
}

// detailFor builds a well-formed detail DOM using the primary probe selector
// for each field.
func detailFor(name, address, phone, ratingText, reviewsText, websiteHref, imageSrc string) map[string][]fakeElement {
	dom := map[string][]fakeElement{}
	if name != "" {
		dom[nameProbes[0].Selector] = []fakeElement{{text: name}}
	}
	if address != "" {
		dom[addressProbes[0].Selector] = []fakeElement{{text: address}}
	}
	if phone != "" {
		dom[phoneProbes[0].Selector] = []fakeElement{{text: phone}}
	}
	if ratingText != "" {
		dom[ratingProbes[0].Selector] = []fakeElement{{text: ratingText}}
	}
	if reviewsText != "" {
		dom[reviewsCountProbes[0].Selector] = []fakeElement{{text: reviewsText}}
	}
	if websiteHref != "" {
		dom[websiteProbes[0].Selector] = []fakeElement{{attrs: map[string]string{"href": websiteHref}}}
	}
	if imageSrc != "" {
		dom[imageProbes[1].Selector] = []fakeElement{{attrs: map[string]string{"src": imageSrc}}}
	}
	return dom
}
