package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/asdscreen/internal/result"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type analysisOutput struct {
	File   *workflow.FileInfo `json:"file,omitempty" yaml:"file,omitempty"`
	Kind   string             `json:"kind" yaml:"kind"`
	Result result.View        `json:"result" yaml:"result"`
}

func writeOutput(w io.Writer, format string, snap workflow.Snapshot) error {
	out := analysisOutput{File: snap.File, Kind: result.KindRaw.String()}
	if snap.Result != nil {
		out.Kind = snap.Result.Kind.String()
		out.Result = result.Render(snap.Result)
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, out)
	}
}

func writeText(w io.Writer, out analysisOutput) error {
	view := out.Result
	if !view.Structured {
		_, err := fmt.Fprintf(w, "Response:\n%s\n", view.RawJSON)
		return err
	}

	if _, err := fmt.Fprintf(w, "File:       %s\nPrediction: %s\nConfidence: %s%%\n\n",
		view.Filename, view.PredictedClass, view.ConfidencePercent); err != nil {
		return err
	}

	rows := make([][]string, 0, len(view.Probabilities))
	for _, p := range view.Probabilities {
		rows = append(rows, []string{p.Class, p.Percent + "%"})
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"Class", "Probability"}, rows, isTerminal(w)))
	return err
}

func renderTable(headers []string, rows [][]string, rounded bool) string {
	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
