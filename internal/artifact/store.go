package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/UnknownOlympus/busopt/internal/models"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	timestampLayout = "20060102_150405"
	dirPerm         = 0o755

	columnDBSCANCluster = "DBSCAN_Cluster"
)

// Names are the file names of the artifacts of one optimization run.
type Names struct {
	Comparison string
	DBSCAN     string
	KMeans     string
}

// NamesAt returns the artifact names stamped with t in local time.
func NamesAt(t time.Time) Names {
	ts := t.Format(timestampLayout)
	return Names{
		Comparison: "comparison_optimized_stops_" + ts + ".png",
		DBSCAN:     "dbscan_optimized_stops_" + ts + ".csv",
		KMeans:     "kmeans_optimized_stops_" + ts + ".csv",
	}
}

// Store writes run artifacts into a single flat directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. A nil clock means time.Now.
func NewStore(dir string, clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{dir: dir, now: clock}
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the output directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}
	return nil
}

// Writable checks that a file can be created in the output directory.
func (s *Store) Writable() error {
	check, err := os.CreateTemp(s.dir, ".healthz-*")
	if err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	name := check.Name()
	return errors.Join(check.Close(), os.Remove(name))
}

// Names returns artifact names for a run starting now.
func (s *Store) Names() Names {
	return NamesAt(s.now())
}

// Create opens name for writing, truncating any previous file.
func (s *Store) Create(name string) (io.WriteCloser, error) {
	file, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return file, nil
}

// Remove deletes the named artifacts, ignoring ones that do not exist.
func (s *Store) Remove(names ...string) error {
	var errs []error
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteDBSCAN writes density cluster summaries with their cluster ids.
func (s *Store) WriteDBSCAN(name string, rows []models.ClusterSummary) error {
	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ClusterID
	}

	cols := append([]series.Series{series.New(ids, series.Int, columnDBSCANCluster)}, pointSeries(rows)...)
	return s.writeFrame(name, dataframe.New(cols...))
}

// WriteKMeans writes centroid summaries without ids.
func (s *Store) WriteKMeans(name string, rows []models.ClusterSummary) error {
	return s.writeFrame(name, dataframe.New(pointSeries(rows)...))
}

// pointSeries holds coordinates as text so that they are written at full
// precision rather than with the dataframe's fixed six decimals.
func pointSeries(rows []models.ClusterSummary) []series.Series {
	lat := make([]string, len(rows))
	lon := make([]string, len(rows))
	density := make([]string, len(rows))
	for i, row := range rows {
		lat[i] = formatFloat(row.Latitude)
		lon[i] = formatFloat(row.Longitude)
		density[i] = formatFloat(row.PopulationDensity)
	}

	return []series.Series{
		series.New(lat, series.String, models.ColumnLatitude),
		series.New(lon, series.String, models.ColumnLongitude),
		series.New(density, series.String, models.ColumnPopulationDensity),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (s *Store) writeFrame(name string, df dataframe.DataFrame) (err error) {
	if df.Err != nil {
		return fmt.Errorf("failed to build %s: %w", name, df.Err)
	}

	file, err := s.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", name, cerr)
		}
	}()

	if err = df.WriteCSV(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
