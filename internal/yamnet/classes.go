// classes.go: YAMNet class map parsing and tracked class resolution
package yamnet

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	"github.com/barkwatch/barkwatch-go/internal/logging"
)

// TrackedClasses returns the default mapping of tracked class ids to the
// YAMNet display names their scores are built from. Thunder combines two
// underlying model classes, the per-window score is the max of both.
func TrackedClasses() map[string][]string {
	return map[string][]string{
		conf.ClassBark:    {"Dog bark", "Bark"},
		conf.ClassThunder: {"Thunder", "Thunderstorm"},
	}
}

// LoadClassMap reads the YAMNet class map CSV (index, mid, display_name)
// and returns display names ordered by class index.
func LoadClassMap(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("yamnet").
			Category(errors.CategoryLabelLoad).
			Context("class_map_path", path).
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.New(err).
			Component("yamnet").
			Category(errors.CategoryLabelLoad).
			Context("class_map_path", path).
			Build()
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("class map %s has no data rows", path)
	}

	// First row is the header: index,mid,display_name
	names := make([]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("class map %s has malformed row %v", path, record)
		}
		index, err := strconv.Atoi(record[0])
		if err != nil || index != len(names) {
			return nil, fmt.Errorf("class map %s has non-sequential index in row %v", path, record)
		}
		names = append(names, record[2])
	}

	return names, nil
}

// resolveTrackedClasses maps tracked class ids to model class indices by
// display name. A tracked class whose display names are all absent from the
// model is an error, a partially resolved class is accepted.
func resolveTrackedClasses(classMap []string, tracked map[string][]string) (map[string][]int, error) {
	byName := make(map[string]int, len(classMap))
	for idx, name := range classMap {
		byName[name] = idx
	}

	resolved := make(map[string][]int, len(tracked))
	for classID, displayNames := range tracked {
		var indices []int
		for _, name := range displayNames {
			if idx, ok := byName[name]; ok {
				indices = append(indices, idx)
			}
		}
		if len(indices) == 0 {
			return nil, errors.Newf("none of the display names %v for class %s exist in the class map", displayNames, classID).
				Component("yamnet").
				Category(errors.CategoryLabelLoad).
				Build()
		}
		resolved[classID] = indices
	}

	return resolved, nil
}

var (
	yamnetLogger *slog.Logger
	loggerOnce   sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		yamnetLogger = logging.ForService("yamnet")
		if yamnetLogger == nil {
			yamnetLogger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "yamnet")
		}
	})
	return yamnetLogger
}
