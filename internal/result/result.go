package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Kind identifies which shape an analysis response was validated into.
type Kind int

const (
	// KindRaw is any JSON value that is not a success payload.
	KindRaw Kind = iota
	// KindPartial is a success payload whose prediction is missing or has mistyped fields.
	KindPartial
	// KindPrediction is a success payload with a complete prediction.
	KindPrediction
)

func (k Kind) String() string {
	switch k {
	case KindPrediction:
		return "prediction"
	case KindPartial:
		return "partial"
	default:
		return "raw"
	}
}

// ClassProbability is one entry of class_probabilities.
type ClassProbability struct {
	Class       string  `json:"class" yaml:"class"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Prediction is the nested prediction object of a success payload.
type Prediction struct {
	PredictedClass string `json:"predicted_class" yaml:"predicted_class"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	// ClassProbabilities keeps the order the classes appeared in the response.
	ClassProbabilities []ClassProbability `json:"class_probabilities" yaml:"class_probabilities"`
}

// Result is a parsed response from the analysis endpoint.
type Result struct {
	Kind       Kind
	Filename   string
	Prediction *Prediction
	// Raw is the response body exactly as received.
	Raw json.RawMessage
}

// Parse validates body into a Result. Any syntactically valid JSON value is
// accepted; only invalid JSON is an error.
func Parse(body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	var probe any
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	res := &Result{Kind: KindRaw, Raw: json.RawMessage(append([]byte(nil), trimmed...))}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		// Not an object: arrays, strings, numbers and null all render raw.
		return res, nil
	}

	var success bool
	if raw, ok := envelope["success"]; !ok || json.Unmarshal(raw, &success) != nil || !success {
		return res, nil
	}

	if raw, ok := envelope["filename"]; ok {
		_ = json.Unmarshal(raw, &res.Filename)
	}

	rawPrediction, ok := envelope["prediction"]
	if !ok || !truthy(rawPrediction) {
		return res, nil
	}

	res.Kind = KindPartial
	prediction, err := parsePrediction(rawPrediction)
	if err != nil {
		return res, nil
	}
	res.Kind = KindPrediction
	res.Prediction = prediction
	return res, nil
}

func parsePrediction(raw json.RawMessage) (*Prediction, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("prediction is not an object: %w", err)
	}

	p := &Prediction{}
	classRaw, ok := fields["predicted_class"]
	if !ok {
		return nil, fmt.Errorf("prediction.predicted_class missing")
	}
	if isNull(classRaw) {
		return nil, fmt.Errorf("prediction.predicted_class is null")
	}
	if err := json.Unmarshal(classRaw, &p.PredictedClass); err != nil {
		return nil, fmt.Errorf("prediction.predicted_class: %w", err)
	}

	confRaw, ok := fields["confidence"]
	if !ok {
		return nil, fmt.Errorf("prediction.confidence missing")
	}
	if isNull(confRaw) {
		return nil, fmt.Errorf("prediction.confidence is null")
	}
	if err := json.Unmarshal(confRaw, &p.Confidence); err != nil {
		return nil, fmt.Errorf("prediction.confidence: %w", err)
	}

	probsRaw, ok := fields["class_probabilities"]
	if !ok {
		return nil, fmt.Errorf("prediction.class_probabilities missing")
	}
	probs, err := decodeOrderedProbabilities(probsRaw)
	if err != nil {
		return nil, fmt.Errorf("prediction.class_probabilities: %w", err)
	}
	p.ClassProbabilities = probs
	return p, nil
}

// decodeOrderedProbabilities walks the object token by token because
// map[string]float64 would lose the key order.
func decodeOrderedProbabilities(raw json.RawMessage) ([]ClassProbability, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object")
	}

	probs := []ClassProbability{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}
		var valueRaw json.RawMessage
		if err := dec.Decode(&valueRaw); err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		if isNull(valueRaw) {
			return nil, fmt.Errorf("%q is null", key)
		}
		var value float64
		if err := json.Unmarshal(valueRaw, &value); err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		probs = append(probs, ClassProbability{Class: key, Probability: value})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return probs, nil
}

// isNull reports whether raw is the JSON literal null, which Unmarshal
// silently accepts for strings and numbers.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// truthy mirrors the loose truthiness the form used for the prediction field.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
