package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

const yamlIndent = 2

func writeRowsPlain(w io.Writer, rows []*metrics.Named, metricNames []string) error {
	for _, row := range rows {
		_, err := fmt.Fprintln(w, project(row, metricNames).String())
		if err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return nil
}

func writeRowsCSV(w io.Writer, rows []*metrics.Named, metricNames []string) error {
	writer := csv.NewWriter(w)

	err := writer.Write(append([]string{"qualname"}, shortNames(metricNames)...))
	if err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(metricNames)+1)
		record = append(record, cell(row, qualnameKey))

		for _, name := range metricNames {
			record = append(record, cell(row, name))
		}

		err = writer.Write(record)
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

func writeAggregateCSV(w io.Writer, result metrics.Result) error {
	names, values := entries(result)

	record := make([]string, len(values))
	for idx, value := range values {
		record[idx] = value.String()
	}

	writer := csv.NewWriter(w)

	err := writer.WriteAll([][]string{shortNames(names), record})
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, value any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return encoder.Close()
}
