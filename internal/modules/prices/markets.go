package prices

import (
	"time"

	"github.com/mbelardi/finanzas/internal/domain"
)

// marketTimezones maps each exchange to its local timezone. Crypto has
// no calendar and is always open.
var marketTimezones = map[domain.Market]string{
	domain.MarketBCBA:   "America/Argentina/Buenos_Aires",
	domain.MarketNYSE:   "America/New_York",
	domain.MarketNASDAQ: "America/New_York",
}

// IsTradingDay reports whether an exchange trades on the given day.
// Unknown markets default to weekdays so a new market is synced rather
// than silently skipped.
func IsTradingDay(market domain.Market, t time.Time) bool {
	if market == domain.MarketBinance {
		return true
	}

	if tz, ok := marketTimezones[market]; ok {
		if loc, err := time.LoadLocation(tz); err == nil {
			t = t.In(loc)
		}
	}

	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
