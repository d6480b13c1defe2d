package linter

import (
	"context"
	"regexp"
)

// trademarkDisclaimerRE matches a link to the Linux Foundation trademark
// usage page on the project homepage.
var trademarkDisclaimerRE = regexp.MustCompile(`(https?://(?:www\.)?linuxfoundation\.org/(?:legal/)?trademark-usage[^"'\s)]*)`)

func checkTrademarkDisclaimer(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.github().Homepage == "" {
		return NotPassed(), nil
	}
	body, err := in.HomepageContent(ctx)
	if err != nil {
		return nil, err
	}
	if m := trademarkDisclaimerRE.FindStringSubmatch(body); m != nil {
		return PassURL(m[1]), nil
	}
	return NotPassed(), nil
}
