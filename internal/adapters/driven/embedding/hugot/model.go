package hugot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	khugot "github.com/knights-analytics/hugot"

	"github.com/custodia-labs/taskman/internal/logger"
)

// onnxFile is the ONNX export inside nomic-style model repositories.
const onnxFile = "onnx/model.onnx"

// downloader fetches a model repository into dest and returns its directory.
type downloader func(name, dest string) (string, error)

// resolveModelPath returns a directory holding the model's tokenizer and
// ONNX files, downloading the model into the cache on first use.
func resolveModelPath(model Model, download downloader) (string, error) {
	if model.Name == "" {
		return "", fmt.Errorf("no embedding model configured")
	}

	// A local directory is used as-is.
	if hasTokenizer(model.Name) {
		return model.Name, nil
	}

	if model.CacheDir == "" {
		return "", fmt.Errorf("model %s not found and no cache directory configured", model.Name)
	}
	cached := filepath.Join(model.CacheDir, strings.ReplaceAll(model.Name, "/", "_"))
	if hasTokenizer(cached) {
		return cached, nil
	}

	if download == nil {
		return "", fmt.Errorf("model %s not found in %s", model.Name, model.CacheDir)
	}
	if err := os.MkdirAll(model.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	logger.Info("Downloading embedding model %s to %s", model.Name, model.CacheDir)
	path, err := download(model.Name, model.CacheDir)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", model.Name, err)
	}
	return path, nil
}

func hasTokenizer(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "tokenizer.json"))
	return err == nil
}

func downloadModel(name, dest string) (string, error) {
	opts := khugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFile
	return khugot.DownloadModel(name, dest, opts)
}
