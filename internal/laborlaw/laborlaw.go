// Package laborlaw resolves weekly working-time caps by jurisdiction.
//
// The rule table is compiled into the binary from rules.toml. A store
// resolves its cap through its LaborSetting: an explicit weekly cap wins,
// then the jurisdiction rule, then DefaultWeeklyCapMinutes.
package laborlaw

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/shiftcrew/shiftcrew/internal/types"
)

// DefaultWeeklyCapMinutes is the fallback cap: 40 hours, the FLSA overtime
// threshold.
const DefaultWeeklyCapMinutes = 2400

//go:embed rules.toml
var rulesTOML []byte

type ruleTable struct {
	DefaultWeeklyMinutes int            `toml:"default_weekly_minutes"`
	Caps                 map[string]int `toml:"caps"`
}

var rules = mustLoad()

func mustLoad() ruleTable {
	var t ruleTable
	if err := toml.Unmarshal(rulesTOML, &t); err != nil {
		panic(fmt.Sprintf("laborlaw: bad embedded rules.toml: %v", err))
	}
	if t.DefaultWeeklyMinutes <= 0 {
		t.DefaultWeeklyMinutes = DefaultWeeklyCapMinutes
	}
	return t
}

// WeeklyCapMinutes returns the cap for a jurisdiction code, matched case
// insensitively. Unknown or empty codes fall back to the default.
func WeeklyCapMinutes(jurisdiction string) int {
	if minutes, ok := rules.Caps[normalize(jurisdiction)]; ok {
		return minutes
	}
	return rules.DefaultWeeklyMinutes
}

// ResolveCap returns the effective weekly cap for a store's labor setting.
// A nil setting means the store never configured one and takes the default.
func ResolveCap(ls *types.LaborSetting) int {
	if ls == nil {
		return DefaultWeeklyCapMinutes
	}
	if ls.WeeklyCapMinutes != nil {
		return *ls.WeeklyCapMinutes
	}
	return WeeklyCapMinutes(ls.Jurisdiction)
}

// Known reports whether a jurisdiction code has an explicit rule.
func Known(jurisdiction string) bool {
	_, ok := rules.Caps[normalize(jurisdiction)]
	return ok
}

// Jurisdictions lists the rule table's codes, sorted.
func Jurisdictions() []string {
	codes := make([]string, 0, len(rules.Caps))
	for code := range rules.Caps {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
