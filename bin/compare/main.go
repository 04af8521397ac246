package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"visual-comparator/internal/comparison"
	"visual-comparator/internal/raster"
	"visual-comparator/internal/storage"
)

type CompareOutput struct {
	ReportPath string             `json:"reportPath"`
	Result     *comparison.Result `json:"result"`
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	_ = godotenv.Load()

	var directory string
	var threshold float64
	var compareRegions string
	var excludeRegions string
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.Float64Var(&threshold, "threshold", envOrDefaultValue("THRESHOLD", 0.0), "Allowed mismatch in score points (0 means pixel-perfect)")
	flag.StringVar(&compareRegions, "compare-regions", envOrDefaultValue("COMPARE_REGIONS", ""), `Regions to compare, JSON array (e.g. [{"x":0,"y":0,"width":100,"height":50}])`)
	flag.StringVar(&excludeRegions, "exclude-regions", envOrDefaultValue("EXCLUDE_REGIONS", ""), "Regions to ignore, JSON array")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("actual, expected not specified")
	}

	ctx := context.Background()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	actualPath := args[0]
	expectedPath := args[1]

	actual, err := loadImage(actualPath)
	if err != nil {
		log.Fatalf("Failed to load actual image: %v", err)
	}

	expected, err := loadImage(expectedPath)
	if err != nil {
		log.Fatalf("Failed to load expected image: %v", err)
	}

	compare, err := comparison.ParseRegions(compareRegions)
	if err != nil {
		log.Fatalf("Failed to parse compare regions: %v", err)
	}

	exclude, err := comparison.ParseRegions(excludeRegions)
	if err != nil {
		log.Fatalf("Failed to parse exclude regions: %v", err)
	}

	result, err := comparison.NewComparator().Compare(actual, expected, comparison.Options{
		Threshold:      threshold,
		CompareRegions: compare,
		ExcludeRegions: exclude,
	})
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}

	reportBytes, err := result.DifferencePNG()
	if err != nil {
		log.Fatalf("Failed to extract report image: %v", err)
	}

	h := sha256.New()
	h.Write([]byte(actualPath + expectedPath))
	hash := fmt.Sprintf("%x", h.Sum(nil))[:16]

	reportPath, err := s.Put(ctx, storage.ReportKey(hash, time.Now()), reportBytes)
	if err != nil {
		log.Fatalf("Failed to save report image: %v", err)
	}

	// The report is on disk already, keep stdout small.
	result.DifferenceImage = ""

	if err := json.NewEncoder(os.Stdout).Encode(CompareOutput{
		ReportPath: reportPath,
		Result:     result,
	}); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if !result.Match {
		os.Exit(1)
	}
}

func loadImage(path string) (*raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return raster.Decode(data)
}
