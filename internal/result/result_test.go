package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successPayload = `{
  "success": true,
  "filename": "a.png",
  "prediction": {
    "predicted_class": "Autistic",
    "confidence": 0.8734,
    "class_probabilities": {"Autistic": 0.8734, "Non-Autistic": 0.1266}
  }
}`

func TestParseSuccessPayload(t *testing.T) {
	res, err := Parse([]byte(successPayload))
	require.NoError(t, err)

	assert.Equal(t, KindPrediction, res.Kind)
	assert.Equal(t, "a.png", res.Filename)
	require.NotNil(t, res.Prediction)
	assert.Equal(t, "Autistic", res.Prediction.PredictedClass)
	assert.InDelta(t, 0.8734, res.Prediction.Confidence, 1e-9)
	assert.Equal(t, []ClassProbability{
		{Class: "Autistic", Probability: 0.8734},
		{Class: "Non-Autistic", Probability: 0.1266},
	}, res.Prediction.ClassProbabilities)
}

func TestParseKeepsProbabilityOrder(t *testing.T) {
	body := `{"success":true,"prediction":{"predicted_class":"z","confidence":0.5,
		"class_probabilities":{"z":0.5,"a":0.3,"m":0.2}}}`
	res, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Equal(t, KindPrediction, res.Kind)

	var order []string
	for _, cp := range res.Prediction.ClassProbabilities {
		order = append(order, cp.Class)
	}
	assert.Equal(t, []string{"z", "a", "m"}, order)
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Kind
	}{
		{name: "success false", body: `{"success":false,"prediction":{}}`, want: KindRaw},
		{name: "no success field", body: `{"detail":"bad image"}`, want: KindRaw},
		{name: "success true without prediction", body: `{"success":true}`, want: KindRaw},
		{name: "null prediction", body: `{"success":true,"prediction":null}`, want: KindRaw},
		{name: "missing predicted_class", body: `{"success":true,"prediction":{"confidence":0.4,"class_probabilities":{}}}`, want: KindPartial},
		{name: "missing class_probabilities", body: `{"success":true,"prediction":{"predicted_class":"x","confidence":0.4}}`, want: KindPartial},
		{name: "string confidence", body: `{"success":true,"prediction":{"predicted_class":"x","confidence":"high","class_probabilities":{}}}`, want: KindPartial},
		{name: "null predicted_class", body: `{"success":true,"prediction":{"predicted_class":null,"confidence":0.5,"class_probabilities":{"a":0.5}}}`, want: KindPartial},
		{name: "null confidence", body: `{"success":true,"prediction":{"predicted_class":"a","confidence":null,"class_probabilities":{"a":0.5}}}`, want: KindPartial},
		{name: "null probability", body: `{"success":true,"prediction":{"predicted_class":"a","confidence":0.5,"class_probabilities":{"a":null}}}`, want: KindPartial},
		{name: "null class_probabilities", body: `{"success":true,"prediction":{"predicted_class":"a","confidence":0.5,"class_probabilities":null}}`, want: KindPartial},
		{name: "prediction is a string", body: `{"success":true,"prediction":"Autistic"}`, want: KindPartial},
		{name: "array body", body: `[1,2,3]`, want: KindRaw},
		{name: "string body", body: `"ok"`, want: KindRaw},
		{name: "success as string", body: `{"success":"true","prediction":{}}`, want: KindRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Kind)
		})
	}
}

func TestRenderNullFieldsFallBackToRaw(t *testing.T) {
	res, err := Parse([]byte(`{"success":true,"prediction":{"predicted_class":null,"confidence":0.5,"class_probabilities":{"a":0.5}}}`))
	require.NoError(t, err)

	view := Render(res)
	assert.False(t, view.Structured)
	assert.Empty(t, view.PredictedClass)
	assert.Contains(t, view.RawJSON, `"predicted_class": null`)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("<html>oops</html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestRenderSuccessPayload(t *testing.T) {
	res, err := Parse([]byte(successPayload))
	require.NoError(t, err)

	view := Render(res)
	assert.True(t, view.Structured)
	assert.Equal(t, "Autistic", view.PredictedClass)
	assert.Equal(t, "autistic", view.ClassSlug)
	assert.Equal(t, "87.34", view.ConfidencePercent)
	assert.Equal(t, []ProbabilityView{
		{Class: "Autistic", Percent: "87.34"},
		{Class: "Non-Autistic", Percent: "12.66"},
	}, view.Probabilities)
	assert.Equal(t, "a.png", view.Filename)
	assert.Empty(t, view.RawJSON)
}

func TestRenderPartialFallsBackToRaw(t *testing.T) {
	res, err := Parse([]byte(`{"success":true,"prediction":{"confidence":0.4}}`))
	require.NoError(t, err)

	view := Render(res)
	assert.False(t, view.Structured)
	assert.Equal(t, "{\n  \"success\": true,\n  \"prediction\": {\n    \"confidence\": 0.4\n  }\n}", view.RawJSON)
}

func TestRenderNil(t *testing.T) {
	assert.Equal(t, View{}, Render(nil))
}

func TestClassSlug(t *testing.T) {
	assert.Equal(t, "nonautistic", ClassSlug("Non-Autistic"))
	assert.Equal(t, "a-b", ClassSlug("A--B"))
	assert.Equal(t, "ab-c", ClassSlug("A-B-C"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.00", FormatPercent(0))
	assert.Equal(t, "100.00", FormatPercent(1))
	assert.Equal(t, "12.66", FormatPercent(0.1266))
}
