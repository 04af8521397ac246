package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"visual-comparator/internal/capture"
	"visual-comparator/internal/comparison"
	"visual-comparator/internal/raster"
	"visual-comparator/internal/retry"
	"visual-comparator/internal/storage"
)

type WorkerOutput struct {
	ActualURL   string             `json:"actualURL"`
	ExpectedURL string             `json:"expectedURL"`
	ReportURL   string             `json:"reportURL"`
	Result      *comparison.Result `json:"result"`
}

type Worker struct {
	Capturer       capture.Capturer
	Storage        storage.Storage
	Comparator     *comparison.Comparator
	Threshold      float64
	CompareRegions []comparison.Region
	ExcludeRegions []comparison.Region
	MaskSelectors  []string
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

	var chromeDevtoolsProtocolURL string
	var storageBackend string
	var callbackURL string
	var threshold float64
	var compareRegions string
	var excludeRegions string
	var maskSelectors string
	var schedule string
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", envOrDefaultValue("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.StringVar(&storageBackend, "storage-backend", envOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&callbackURL, "callback-url", envOrDefaultValue("CALLBACK_URL", ""), "Callback URL to send results to")
	flag.Float64Var(&threshold, "threshold", envOrDefaultValue("THRESHOLD", 0.0), "Allowed mismatch in score points (0 means pixel-perfect)")
	flag.StringVar(&compareRegions, "compare-regions", envOrDefaultValue("COMPARE_REGIONS", ""), "Regions to compare, JSON array")
	flag.StringVar(&excludeRegions, "exclude-regions", envOrDefaultValue("EXCLUDE_REGIONS", ""), "Regions to ignore, JSON array")
	flag.StringVar(&maskSelectors, "mask-selectors", envOrDefaultValue("MASK_SELECTORS", ""), "Comma-separated list of CSS selectors to mask during capture")
	flag.StringVar(&schedule, "schedule", envOrDefaultValue("SCHEDULE", ""), "Cron expression; when set the check runs continuously on that schedule")

	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		log.Fatalf("expected URL, actual URL not specified")
	}

	expectedURL := args[0]
	actualURL := args[1]

	ctx := context.Background()

	config := capture.DefaultPlaywrightConfig()
	if chromeDevtoolsProtocolURL != "" {
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}

	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		log.Fatalf("failed to install playwright browsers: %v", err)
	}

	capturer, err := capture.NewPlaywrightCapturer(ctx, config)
	if err != nil {
		log.Fatalf("failed to initialize capturer: %v", err)
	}

	var s storage.Storage
	switch storageBackend {
	case "file":
		s, err = storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: envOrDefaultValue("DIRECTORY", "/tmp"),
		})
		if err != nil {
			log.Fatalf("failed to create file storage backend: %v", err)
		}
	case "s3":
		s, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket: os.Getenv("S3_BUCKET"),
		})
		if err != nil {
			log.Fatalf("failed to create S3 storage backend: %v", err)
		}
	default:
		log.Fatalf("unknown storage backend: %s", storageBackend)
	}

	compare, err := comparison.ParseRegions(compareRegions)
	if err != nil {
		log.Fatalf("failed to parse compare regions: %v", err)
	}

	exclude, err := comparison.ParseRegions(excludeRegions)
	if err != nil {
		log.Fatalf("failed to parse exclude regions: %v", err)
	}

	worker := &Worker{
		Capturer:       capturer,
		Storage:        s,
		Comparator:     comparison.NewComparator(),
		Threshold:      threshold,
		CompareRegions: compare,
		ExcludeRegions: exclude,
	}
	if maskSelectors != "" {
		for _, selector := range strings.Split(maskSelectors, ",") {
			worker.MaskSelectors = append(worker.MaskSelectors, strings.TrimSpace(selector))
		}
	}

	run := func() error {
		result, err := worker.processCheck(ctx, expectedURL, actualURL)
		if err != nil {
			return xerrors.Errorf("failed to process check: %w", err)
		}

		j, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return xerrors.Errorf("failed to marshal result: %w", err)
		}

		if callbackURL == "" {
			fmt.Println(string(j))
			return nil
		}
		if err := callback(ctx, callbackURL, j); err != nil {
			return xerrors.Errorf("failed to send callback: %w", err)
		}
		return nil
	}

	if schedule == "" {
		if err := run(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		// A failed scheduled run is logged, the next tick still fires.
		if err := run(); err != nil {
			log.Printf("%v", err)
		}
	}); err != nil {
		log.Fatalf("invalid schedule %q: %v", schedule, err)
	}
	c.Run()
}

func (w *Worker) processCheck(ctx context.Context, expectedURL string, actualURL string) (*WorkerOutput, error) {
	var expectedResult *capture.CaptureResult
	var actualResult *capture.CaptureResult

	options := capture.CaptureOptions{
		MaskSelectors: w.MaskSelectors,
	}

	// Capture both pages in parallel.
	{
		eg, ctx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			result, err := w.Capturer.Capture(ctx, expectedURL, options)
			if err != nil {
				return xerrors.Errorf("failed to capture expected screenshot: %w", err)
			}
			expectedResult = result
			return nil
		})

		eg.Go(func() error {
			result, err := w.Capturer.Capture(ctx, actualURL, options)
			if err != nil {
				return xerrors.Errorf("failed to capture actual screenshot: %w", err)
			}
			actualResult = result
			return nil
		})

		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	expected, err := raster.Decode(expectedResult.Screenshot)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode expected screenshot: %w", err)
	}

	actual, err := raster.Decode(actualResult.Screenshot)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode actual screenshot: %w", err)
	}

	result, err := w.Comparator.Compare(actual, expected, comparison.Options{
		Threshold:      w.Threshold,
		CompareRegions: w.CompareRegions,
		ExcludeRegions: w.ExcludeRegions,
	})
	if err != nil {
		return nil, xerrors.Errorf("comparison failed: %w", err)
	}

	reportBytes, err := result.DifferencePNG()
	if err != nil {
		return nil, xerrors.Errorf("failed to extract report image: %w", err)
	}

	now := time.Now()

	// Upload everything in parallel.
	output := &WorkerOutput{}
	{
		eg, ctx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			url, err := w.Storage.Put(ctx, storage.CaptureKey(checkName(expectedURL), now), expectedResult.Screenshot)
			if err != nil {
				return xerrors.Errorf("failed to upload expected screenshot: %w", err)
			}
			output.ExpectedURL = url
			return nil
		})

		eg.Go(func() error {
			url, err := w.Storage.Put(ctx, storage.CaptureKey(checkName(actualURL), now), actualResult.Screenshot)
			if err != nil {
				return xerrors.Errorf("failed to upload actual screenshot: %w", err)
			}
			output.ActualURL = url
			return nil
		})

		eg.Go(func() error {
			url, err := w.Storage.Put(ctx, storage.ReportKey(checkName(expectedURL+actualURL), now), reportBytes)
			if err != nil {
				return xerrors.Errorf("failed to upload report image: %w", err)
			}
			output.ReportURL = url
			return nil
		})

		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	// The report artifact is in storage, keep the callback payload small.
	result.DifferenceImage = ""
	output.Result = result

	return output, nil
}

func checkName(seed string) string {
	h := sha256.New()
	h.Write([]byte(seed))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

func callback(ctx context.Context, url string, body []byte) error {
	client := &http.Client{
		Transport: &retry.Transport{
			RetryStrategy: retry.NewExponentialBackOff(time.Second, 30*time.Second, 5, nil),
			RetryOn:       retry.NewDefaultRetryOn(),
		},
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return xerrors.Errorf("failed to create callback request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return xerrors.Errorf("failed to send callback: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		return xerrors.Errorf("callback returned status %d", response.StatusCode)
	}

	return nil
}
