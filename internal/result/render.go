package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ProbabilityView is one rendered row of the class breakdown.
type ProbabilityView struct {
	Class   string `json:"class" yaml:"class"`
	Percent string `json:"percent" yaml:"percent"`
}

// View is the presentation of a Result. Structured is true when the
// prediction panel should be shown; otherwise RawJSON holds the pretty-printed body.
type View struct {
	Structured        bool              `json:"structured" yaml:"structured"`
	PredictedClass    string            `json:"predicted_class,omitempty" yaml:"predicted_class,omitempty"`
	ClassSlug         string            `json:"class_slug,omitempty" yaml:"class_slug,omitempty"`
	ConfidencePercent string            `json:"confidence_percent,omitempty" yaml:"confidence_percent,omitempty"`
	Probabilities     []ProbabilityView `json:"probabilities,omitempty" yaml:"probabilities,omitempty"`
	Filename          string            `json:"filename,omitempty" yaml:"filename,omitempty"`
	RawJSON           string            `json:"raw_json,omitempty" yaml:"raw_json,omitempty"`
}

// Render builds the View for r. It never fails: anything that is not a
// complete prediction falls back to the raw JSON.
func Render(r *Result) View {
	if r == nil {
		return View{}
	}
	if r.Kind != KindPrediction || r.Prediction == nil {
		return View{RawJSON: PrettyJSON(r.Raw)}
	}

	p := r.Prediction
	probs := make([]ProbabilityView, 0, len(p.ClassProbabilities))
	for _, cp := range p.ClassProbabilities {
		probs = append(probs, ProbabilityView{Class: cp.Class, Percent: FormatPercent(cp.Probability)})
	}

	return View{
		Structured:        true,
		PredictedClass:    p.PredictedClass,
		ClassSlug:         ClassSlug(p.PredictedClass),
		ConfidencePercent: FormatPercent(p.Confidence),
		Probabilities:     probs,
		Filename:          r.Filename,
	}
}

// FormatPercent scales a 0..1 value to a percentage with two decimals, without the sign.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f", v*100)
}

// ClassSlug lower-cases the label and drops its first hyphen ("Non-Autistic" -> "nonautistic").
func ClassSlug(class string) string {
	return strings.Replace(strings.ToLower(class), "-", "", 1)
}

// PrettyJSON indents raw with two spaces, keeping key order. Invalid input is returned as-is.
func PrettyJSON(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
