package interpreter

import (
	"context"

	"github.com/sirupsen/logrus"

	"scrapeflow/domain/interfaces"
)

// adBlockCSS hides the most common ad-container class/id patterns. It is a
// best-effort cosmetic filter, not a network-level blocker: scrapeflow has
// no request-interception layer, so ad payloads still load, they are just
// hidden from view and off screenshots. Hidden elements stay in the DOM, so
// the in-page scraping primitives (scrapeListAuto's sibling grouping
// included) still see them.
const adBlockCSS = `
[id*="google_ads"], [class*="google-ads"], [id^="div-gpt-ad"],
[class*="adsbygoogle"], iframe[src*="doubleclick.net"],
[class*="sponsored-content"], [id*="taboola"], [id*="outbrain"] {
  display: none !important;
}
`

// injectAdBlocker runs once per page at the start of its main loop. Failure
// is logged and otherwise ignored: an ad-blocker that doesn't apply is not
// a reason to abandon the run.
func injectAdBlocker(ctx context.Context, driver interfaces.Driver, logger *logrus.Logger) {
	script := `(function(css){
		var style = document.createElement('style');
		style.textContent = css;
		document.head.appendChild(style);
	})`
	if _, err := driver.Evaluate(ctx, script, adBlockCSS); err != nil {
		logger.Debugf("ad-blocker injection skipped: %v", err)
	}
}
