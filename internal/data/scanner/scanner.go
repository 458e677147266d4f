package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-colony-monitor/internal/util"
)

const (
	DefaultActivitySuffix = "_Activity.csv"
	DefaultPredatorSuffix = "_Predator.csv"
)

// Source is one video source with its observation files. A missing file
// leaves its path empty.
type Source struct {
	Name         string
	ActivityPath string
	PredatorPath string
}

// FileScanner locates observation files in a data directory.
type FileScanner struct {
	baseDir        string
	activitySuffix string
	predatorSuffix string
	names          []string
}

// NewFileScanner creates a scanner with the default file suffixes.
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir:        baseDir,
		activitySuffix: DefaultActivitySuffix,
		predatorSuffix: DefaultPredatorSuffix,
	}
}

// WithSuffixes overrides the activity and predator file suffixes.
func (s *FileScanner) WithSuffixes(activity, predator string) *FileScanner {
	if activity != "" {
		s.activitySuffix = activity
	}
	if predator != "" {
		s.predatorSuffix = predator
	}
	return s
}

// WithNames restricts the scan to the given sources, kept in that order.
func (s *FileScanner) WithNames(names []string) *FileScanner {
	s.names = append([]string(nil), names...)
	return s
}

// Scan walks the data directory and pairs activity and predator files by
// source name. Without an explicit name list sources are sorted by name.
func (s *FileScanner) Scan() ([]Source, error) {
	start := time.Now()
	bySource := make(map[string]*Source)
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		base := filepath.Base(path)
		switch {
		case strings.HasSuffix(base, s.activitySuffix):
			s.source(bySource, strings.TrimSuffix(base, s.activitySuffix)).ActivityPath = path
		case strings.HasSuffix(base, s.predatorSuffix):
			s.source(bySource, strings.TrimSuffix(base, s.predatorSuffix)).PredatorPath = path
		}
		return nil
	})

	sources := s.order(bySource)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d sources",
		time.Since(start), dirCount, totalCount, len(sources)))

	return sources, err
}

func (s *FileScanner) source(bySource map[string]*Source, name string) *Source {
	src, ok := bySource[name]
	if !ok {
		src = &Source{Name: name}
		bySource[name] = src
	}
	return src
}

func (s *FileScanner) order(bySource map[string]*Source) []Source {
	var sources []Source
	if len(s.names) > 0 {
		for _, name := range s.names {
			if src, ok := bySource[name]; ok {
				sources = append(sources, *src)
			} else {
				util.LogWarn(fmt.Sprintf("No observation files found for source %s", name))
			}
		}
		return sources
	}

	for _, src := range bySource {
		sources = append(sources, *src)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
	return sources
}

// Paths returns every file path of the sources.
func Paths(sources []Source) []string {
	var paths []string
	for _, src := range sources {
		if src.ActivityPath != "" {
			paths = append(paths, src.ActivityPath)
		}
		if src.PredatorPath != "" {
			paths = append(paths, src.PredatorPath)
		}
	}
	return paths
}
