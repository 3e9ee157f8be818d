// Package result parses analysis endpoint responses and renders them for display.
//
// Responses are validated once, at parse time, into one of three kinds:
//
//   - KindPrediction: success is true and the prediction carries a class,
//     a confidence and a class_probabilities object.
//   - KindPartial: success is true and prediction is present but incomplete.
//   - KindRaw: any other JSON value.
//
// Render only shows the structured panel for KindPrediction. Everything else
// is displayed as indented JSON, so a partial payload can never break rendering.
package result
