package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// scaleBytes picks the largest base-1024 unit for which the scaled value
// is at least 1, capped at TB. The choice is made on the value as it will
// print at the given precision, so 1048575 shows as "1.00 MB" rather than
// "1024.00 KB".
func scaleBytes(b float64, precision int) (float64, string) {
	abs := math.Abs(b)
	i := 0
	for i < len(byteUnits)-1 && roundAt(abs, precision) >= 1024 {
		abs /= 1024
		i++
	}
	if b < 0 {
		abs = -abs
	}
	return abs, byteUnits[i]
}

func roundAt(v float64, precision int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', precision, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatBytes renders a byte count with two decimals, dropping trailing
// zeros from a non-zero fraction: 1536 is "1.5 KB", 1073741824 is
// "1.00 GB". Plain bytes never show a zero fraction, so 0 is "0 B".
func FormatBytes(b float64) string {
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return "N/A"
	}
	if b == 0 {
		return "0 B"
	}

	v, unit := scaleBytes(b, 2)
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if unit == "B" || !strings.HasSuffix(s, ".00") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " " + unit
}

// FormatBytesPrecision renders a byte count with a fixed number of decimals.
func FormatBytesPrecision(b float64, precision int) string {
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return "N/A"
	}
	if b == 0 {
		return "0 B"
	}
	v, unit := scaleBytes(b, precision)
	return strconv.FormatFloat(v, 'f', precision, 64) + " " + unit
}

// FormatGB renders bytes as gigabytes with one decimal.
func FormatGB(b float64) string {
	return fmt.Sprintf("%.1f GB", b/(1<<30))
}

// FormatMB renders bytes as megabytes with one decimal.
func FormatMB(b float64) string {
	return fmt.Sprintf("%.1f MB", b/(1<<20))
}

// FormatRate renders a per-second byte rate.
func FormatRate(b float64) string {
	return FormatBytes(b) + "/s"
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", p)
}

// FormatLatest renders the result of LatestValue, printing N/A when the
// series was empty.
func FormatLatest(v float64, ok bool, format func(float64) string) string {
	if !ok {
		return "N/A"
	}
	return format(v)
}

// FormatMillis renders a duration given in milliseconds.
func FormatMillis(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return "N/A"
	}
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.0f ms", ms)
}
