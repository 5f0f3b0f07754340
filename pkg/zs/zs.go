// Package zs maps protective devices to their maximum permissible
// earth-fault-loop impedance (Zs) for automatic disconnection of supply.
//
// Values are ohms at a nominal voltage to earth of 230 V as tabulated in
// BS 7671:2008, with no Cmin factor applied, so a curve B 32 A breaker reads
// 230 / (5 x 32) = 1.44. Circuit-breaker families are tabulated per tripping
// curve; fuse families are curve independent. Fuses have separate 0.4 s and
// 5 s tables; breakers trip instantaneously, so one table serves both.
package zs

import (
	"strconv"
	"strings"
)

// Device standards recognised by the lookup.
const (
	BSEN60898   = "BS EN 60898"
	BSEN61009   = "BS EN 61009"
	BSEN60947_2 = "BS EN 60947-2"
	BS3871      = "BS 3871"
	BS88_2      = "BS 88-2"
	BS88_3      = "BS 88-3"
	BS1361      = "BS 1361"
	BS1362      = "BS 1362"
	BS3036      = "BS 3036"
)

// ratingTable is keyed by device current rating in amps.
type ratingTable map[int]float64

// DisconnectionTime selects which maximum disconnection time a limit is
// read for.
type DisconnectionTime int

const (
	// FinalCircuit is the 0.4 s limit for final circuits.
	FinalCircuit DisconnectionTime = iota
	// DistributionCircuit is the 5 s limit for distribution circuits.
	DistributionCircuit
)

// String renders the time in seconds.
func (t DisconnectionTime) String() string {
	if t == DistributionCircuit {
		return "5s"
	}
	return "0.4s"
}

// ParseDisconnectionTime reads "0.4", "0.4s", "5" or "5s".
func ParseDisconnectionTime(s string) (DisconnectionTime, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "0.4", ".4":
		return FinalCircuit, true
	case "5":
		return DistributionCircuit, true
	}
	return FinalCircuit, false
}

// breakerCurves holds curve-dependent families. Curve B trips at 5 In,
// C at 10 In, D at 20 In; BS 3871 types 1/2/3 at 4/7/10 In.
var breakerCurves = map[string]map[string]ratingTable{
	BSEN60898:   mcbCurves,
	BSEN61009:   mcbCurves,
	BSEN60947_2: mcbCurves,
	BS3871: {
		"1": {5: 11.5, 6: 9.58, 10: 5.75, 15: 3.83, 16: 3.59, 20: 2.88, 25: 2.3, 30: 1.92, 32: 1.8, 40: 1.44, 45: 1.28, 50: 1.15, 63: 0.91, 100: 0.58},
		"2": {5: 6.57, 6: 5.48, 10: 3.29, 15: 2.19, 16: 2.05, 20: 1.64, 25: 1.31, 30: 1.1, 32: 1.03, 40: 0.82, 45: 0.73, 50: 0.66, 63: 0.52, 100: 0.33},
		"3": {5: 4.6, 6: 3.83, 10: 2.3, 15: 1.53, 16: 1.44, 20: 1.15, 25: 0.92, 30: 0.77, 32: 0.72, 40: 0.57, 45: 0.51, 50: 0.46, 63: 0.37, 100: 0.23},
	},
}

var mcbCurves = map[string]ratingTable{
	"B": {3: 15.33, 6: 7.67, 10: 4.6, 16: 2.87, 20: 2.3, 25: 1.84, 32: 1.44, 40: 1.15, 45: 1.02, 50: 0.92, 63: 0.73, 80: 0.57, 100: 0.46, 125: 0.37},
	"C": {3: 7.67, 6: 3.83, 10: 2.3, 16: 1.44, 20: 1.15, 25: 0.92, 32: 0.72, 40: 0.57, 45: 0.51, 50: 0.46, 63: 0.37, 80: 0.29, 100: 0.23, 125: 0.18},
	"D": {3: 3.83, 6: 1.92, 10: 1.15, 16: 0.72, 20: 0.57, 25: 0.46, 32: 0.36, 40: 0.29, 45: 0.26, 50: 0.23, 63: 0.18, 80: 0.14, 100: 0.11, 125: 0.09},
}

// fuses holds the 0.4 s limits of the curve-independent families.
var fuses = map[string]ratingTable{
	BS88_2: {2: 33.1, 4: 15.6, 6: 8.52, 10: 5.11, 16: 2.7, 20: 1.77, 25: 1.44, 32: 1.04},
	BS88_3: {5: 9.72, 16: 2.3, 20: 1.44, 32: 0.74, 45: 0.36, 63: 0.25, 80: 0.18, 100: 0.13},
	BS1361: {5: 10.45, 15: 3.28, 20: 1.7, 30: 1.15, 45: 0.6, 60: 0.43, 80: 0.27, 100: 0.18},
	BS1362: {3: 16.4, 13: 2.42},
	BS3036: {5: 9.58, 15: 2.55, 20: 1.77, 30: 1.09, 45: 0.87, 60: 0.6, 100: 0.27},
}

// distributionFuses holds the 5 s limits. Only BS 88-2 is tabulated for
// distribution circuits.
var distributionFuses = map[string]ratingTable{
	BS88_2: {6: 13.5, 10: 7.42, 16: 4.18, 20: 2.91, 25: 2.3, 32: 1.84, 40: 1.35, 50: 1.04, 63: 0.82, 80: 0.57, 100: 0.42, 125: 0.33, 160: 0.25, 200: 0.19},
}

// normalize folds spacing and case so "bs en 60898" and "BS EN  60898"
// resolve to the same family.
func normalize(standard string) string {
	return strings.ToUpper(strings.Join(strings.Fields(standard), " "))
}

// RequiresCurve reports whether the device family is defined by a tripping
// curve. Fuse families and unknown standards return false.
func RequiresCurve(bsStandard string) bool {
	_, ok := breakerCurves[normalize(bsStandard)]
	return ok
}

// IsKnownStandard reports whether the lookup has any table for bsStandard.
func IsKnownStandard(bsStandard string) bool {
	key := normalize(bsStandard)
	if _, ok := breakerCurves[key]; ok {
		return true
	}
	if _, ok := fuses[key]; ok {
		return true
	}
	_, ok := distributionFuses[key]
	return ok
}

// ParseRating reads a current rating such as "32", "32A" or " 32 a ".
func ParseRating(rating string) (int, bool) {
	s := strings.TrimSpace(rating)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "A"), "a")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// MaxDisconnectionImpedance returns the tabulated 0.4 s maximum Zs in ohms
// for the device identity. The second result is false when there is no
// match: empty standard or rating, missing curve for a curve-dependent
// family, or an unknown standard, curve or rating.
func MaxDisconnectionImpedance(bsStandard, curve, rating string) (float64, bool) {
	return MaxImpedance(bsStandard, curve, rating, FinalCircuit)
}

// MaxImpedance is MaxDisconnectionImpedance for a chosen disconnection time.
func MaxImpedance(bsStandard, curve, rating string, t DisconnectionTime) (float64, bool) {
	if strings.TrimSpace(bsStandard) == "" || strings.TrimSpace(rating) == "" {
		return 0, false
	}
	amps, ok := ParseRating(rating)
	if !ok {
		return 0, false
	}

	key := normalize(bsStandard)
	if curves, ok := breakerCurves[key]; ok {
		c := strings.ToUpper(strings.TrimSpace(curve))
		c = strings.TrimPrefix(c, "TYPE ")
		if c == "" {
			return 0, false
		}
		table, ok := curves[c]
		if !ok {
			return 0, false
		}
		v, ok := table[amps]
		return v, ok
	}

	tables := fuses
	if t == DistributionCircuit {
		tables = distributionFuses
	}
	if table, ok := tables[key]; ok {
		v, ok := table[amps]
		return v, ok
	}
	return 0, false
}

// Format renders a Zs value the way it is stored on a circuit record.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Standards lists every standard the lookup knows, breakers first.
func Standards() []string {
	return []string{BSEN60898, BSEN61009, BSEN60947_2, BS3871, BS88_2, BS88_3, BS1361, BS1362, BS3036}
}
