package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"slices"

	"github.com/UnknownOlympus/busopt/internal/models"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrFileNotFound is returned when the configured dataset does not exist.
var ErrFileNotFound = errors.New("dataset file not found")

// MissingColumnsError reports that the dataset lacks one or more required columns.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV file must contain columns: %v", models.RequiredColumns())
}

// Dataset is the in-memory view of an input file used by a single optimization run.
type Dataset struct {
	Columns []string       // Columns as they appear in the header, including ignored extras.
	Points  []models.Point // Points in file order.
}

// Len returns the number of points in the dataset.
func (d *Dataset) Len() int {
	return len(d.Points)
}

// Load opens the CSV file at path and reads it with Read.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read parses a CSV stream into a Dataset. Only the required columns are
// converted; any other column is kept as text and ignored. A file holding
// just a valid header is an empty dataset.
func Read(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	names, hasRows, err := header(data)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range models.RequiredColumns() {
		if !slices.Contains(names, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	if !hasRows {
		return &Dataset{Columns: names, Points: []models.Point{}}, nil
	}

	types := make(map[string]series.Type, len(models.RequiredColumns()))
	for _, col := range models.RequiredColumns() {
		types[col] = series.Float
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", df.Err)
	}

	lat, err := floatColumn(df, models.ColumnLatitude)
	if err != nil {
		return nil, err
	}
	lon, err := floatColumn(df, models.ColumnLongitude)
	if err != nil {
		return nil, err
	}
	density, err := floatColumn(df, models.ColumnPopulationDensity)
	if err != nil {
		return nil, err
	}

	points := make([]models.Point, df.Nrow())
	for i := range points {
		points[i] = models.Point{
			Latitude:          lat[i],
			Longitude:         lon[i],
			PopulationDensity: density[i],
		}
	}

	return &Dataset{Columns: df.Names(), Points: points}, nil
}

// floatColumn extracts a numeric column, rejecting cells that did not parse.
func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	values := df.Col(name).Float()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("malformed value in column %q at row %d", name, i+1)
		}
	}

	return values, nil
}

// header returns the column names of data and whether any record follows them.
func header(data []byte) ([]string, bool, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	names, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errors.New("failed to read dataset: file is empty")
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read dataset header: %w", err)
	}

	_, err = reader.Read()
	if errors.Is(err, io.EOF) {
		return names, false, nil
	}

	return names, true, nil
}
