package laborlaw

import (
	"sort"
	"testing"
)

func TestWeeklyCapMinutes(t *testing.T) {
	if got := WeeklyCapMinutes("US"); got != 2400 {
		t.Errorf("US cap = %d, want 2400", got)
	}
	if got := WeeklyCapMinutes("KR"); got != 3120 {
		t.Errorf("KR cap = %d, want 3120", got)
	}
	if got := WeeklyCapMinutes(" kr "); got != 3120 {
		t.Errorf("normalized KR cap = %d, want 3120", got)
	}
	if got := WeeklyCapMinutes("Atlantis"); got != DefaultWeeklyCapMinutes {
		t.Errorf("unknown code cap = %d, want default %d", got, DefaultWeeklyCapMinutes)
	}
	if got := WeeklyCapMinutes(""); got != DefaultWeeklyCapMinutes {
		t.Errorf("empty code cap = %d, want default %d", got, DefaultWeeklyCapMinutes)
	}
}

func TestKnown(t *testing.T) {
	if !Known("us-ca") {
		t.Error("us-ca should be a known jurisdiction")
	}
	if Known("Atlantis") {
		t.Error("Atlantis should not be a known jurisdiction")
	}
}

func TestJurisdictions(t *testing.T) {
	codes := Jurisdictions()
	if len(codes) == 0 {
		t.Fatal("rule table is empty")
	}
	if !sort.StringsAreSorted(codes) {
		t.Errorf("codes are not sorted: %v", codes)
	}
	for _, code := range codes {
		if !Known(code) {
			t.Errorf("listed code %s not resolvable", code)
		}
	}
}
