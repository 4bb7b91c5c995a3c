// Package core provides the template helpers shared by every portal page.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
	"github.com/DarwinOsingo/Afrigene/internal/http/uiutil"
	"github.com/DarwinOsingo/Afrigene/internal/navigation"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":       deps.ContentTemplateFor,
		"friendlyTime":      friendlyTime,
		"friendlyDate":      friendlyDate,
		"timeTag":           timeTag,
		"add":               func(a, b int) int { return a + b },
		"sub":               func(a, b int) int { return a - b },
		"formatNumber":      FormatNumber,
		"percent":           Percent,
		"frequency":         Frequency,
		"statusClass":       StatusClass,
		"significanceClass": SignificanceClass,
		"ciStyle":           CIStyle,
		"sortedFrequencies": SortedFrequencies,
		"visible":           visible,
		"truncateText":      uiutil.TruncateWithEllipsis,
		"orDash":            OrDash,
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during execution.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

func asTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case model.Timestamp:
		return v.Time
	case *model.Timestamp:
		if v != nil {
			return v.Time
		}
	}
	return time.Time{}
}

func friendlyTime(ts any) string {
	return uiutil.FormatFriendlyDateTime(asTime(ts))
}

func friendlyDate(ts any) string {
	return uiutil.FormatFriendlyDate(asTime(ts))
}

func timeTag(ts any) template.HTML {
	t0 := asTime(ts)
	if t0.IsZero() {
		return ""
	}
	friendly := uiutil.FormatFriendlyDateTime(t0)
	dt := t0.UTC().Format(time.RFC3339)
	// #nosec G203 - constructed from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		dt,
		template.HTMLEscapeString(uiutil.FriendlyRelativeTime(t0)),
		template.HTMLEscapeString(friendly),
	))
}

// FormatNumber formats an integer with comma separators for thousands.
func FormatNumber(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	if len(s) > 3 {
		var b strings.Builder
		head := len(s) % 3
		if head == 0 {
			head = 3
		}
		b.WriteString(s[:head])
		for i := head; i < len(s); i += 3 {
			b.WriteByte(',')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// Percent renders a 0-100 value with one decimal.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// Frequency renders a 0-1 allele frequency as a percentage.
func Frequency(v float64) string {
	return Percent(v * 100)
}

// StatusClass maps a sample status to a badge class.
func StatusClass(s model.SampleStatus) string {
	switch s {
	case model.SampleStatusResultsAvailable:
		return "badge-success"
	case model.SampleStatusProcessing:
		return "badge-warning"
	case model.SampleStatusArchived:
		return "badge-muted"
	default:
		return "badge-info"
	}
}

// SignificanceClass tints a health marker card by its clinical significance.
func SignificanceClass(significance string) string {
	s := strings.ToLower(significance)
	switch {
	case s == "":
		return "marker-neutral"
	case strings.Contains(s, "disease"):
		return "marker-danger"
	case strings.Contains(s, "carrier"), strings.Contains(s, "trait"):
		return "marker-warning"
	default:
		return "marker-info"
	}
}

// CIStyle positions a confidence interval bar on a 0-100 track. The bar is
// at least 10 points wide so narrow intervals stay visible.
func CIStyle(ci model.ConfidenceInterval) template.CSS {
	left := clamp(ci.Lower, 0, 100)
	width := math.Max(ci.Upper-ci.Lower, 10)
	width = math.Min(width, 100-left)
	// #nosec G203 - numeric values only
	return template.CSS(fmt.Sprintf("left:%.1f%%;width:%.1f%%", left, width))
}

// PopulationFrequency is one entry of a marker's frequency table.
type PopulationFrequency struct {
	Population string
	Frequency  float64
}

// SortedFrequencies returns the frequency map ordered by population name.
func SortedFrequencies(m map[string]float64) []PopulationFrequency {
	out := make([]PopulationFrequency, 0, len(m))
	for k, v := range m {
		out = append(out, PopulationFrequency{Population: k, Frequency: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Population < out[j].Population })
	return out
}

// OrDash substitutes "-" for empty strings.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func visible(required string, user *domainauth.User) bool {
	return navigation.Visible(domainauth.Role(required), user)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
