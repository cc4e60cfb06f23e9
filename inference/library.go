package inference

import (
	"os"
	"runtime"
)

// LibraryPathEnv names the environment variable consulted for the ONNX Runtime shared library.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// SharedLibPath returns the path to the ONNX Runtime shared library for the current platform.
//
// Arguments:
//   - override: An explicit path; used as-is when not empty.
//
// Returns:
//   - string: The override, else $ONNXRUNTIME_SHARED_LIBRARY_PATH, else the bundled library path
//     for this platform.
func SharedLibPath(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(LibraryPathEnv); env != "" {
		return env
	}

	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}
