//go:build ignore

// build.go - gasrate build system
// Usage: go run build.go [-target=TARGET]
// Targets: all, web, analyzer, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "gasrate"

var (
	rootDir string
	distDir string

	// key = directory under cmd/, value = output name without extension
	executables = map[string]string{
		"web":      "gasrate-web",
		"analyzer": "gasrate-analyzer",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Version string
	GOOS    string
	GOARCH  string
}

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); err != nil {
		panic(fmt.Sprintf("go.mod not found in %s; run build.go from the module root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", "", "Version stamped into the binaries (defaults to git describe)")
	flag.Parse()

	ctx := &BuildContext{
		Verbose: *verbose,
		Version: *version,
		GOOS:    runtime.GOOS,
		GOARCH:  runtime.GOARCH,
	}
	if ctx.Version == "" {
		ctx.Version = gitVersion()
	}

	start := time.Now()
	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "web", "analyzer":
		err = buildExecutable(*target, ctx)
	case "test":
		err = runTests(ctx)
	case "clean":
		err = clean(ctx)
	case "release":
		err = buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) error {
	printInfo("Building all components...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("create dist directory: %w", err)
	}
	for name := range executables {
		if err := buildExecutable(name, ctx); err != nil {
			return err
		}
	}
	return copyConfigFiles(ctx)
}

func buildExecutable(name string, ctx *BuildContext) error {
	output := filepath.Join(distDir, executableName(name, ctx.GOOS))
	printInfo(fmt.Sprintf("Building %s -> %s", name, output))

	ldflags := strings.Join([]string{
		"-s -w",
		fmt.Sprintf("-X %s/internal/app.Version=%s", module, ctx.Version),
		fmt.Sprintf("-X %s/internal/app.BuildTime=%s", module, time.Now().UTC().Format(time.RFC3339)),
	}, " ")

	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", output, "./cmd/" + name}
	return run(ctx, append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH, "CGO_ENABLED=0"), "go", args...)
}

func executableName(name, goos string) string {
	out := executables[name]
	if goos == "windows" {
		out += ".exe"
	}
	return out
}

func runTests(ctx *BuildContext) error {
	printInfo("Running tests...")
	args := []string{"test", "./..."}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	return run(ctx, nil, "go", args...)
}

func clean(ctx *BuildContext) error {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		return fmt.Errorf("remove %s: %w", distDir, err)
	}
	return nil
}

// buildRelease cross-compiles every executable for the supported platforms
func buildRelease(ctx *BuildContext) error {
	platforms := [][2]string{{"linux", "amd64"}, {"linux", "arm64"}, {"windows", "amd64"}, {"darwin", "arm64"}}
	root := distDir
	defer func() { distDir = root }()

	for _, p := range platforms {
		distDir = filepath.Join(root, fmt.Sprintf("%s_%s_%s", module, p[0], p[1]))
		platformCtx := *ctx
		platformCtx.GOOS, platformCtx.GOARCH = p[0], p[1]
		if err := buildAll(&platformCtx); err != nil {
			return fmt.Errorf("%s/%s: %w", p[0], p[1], err)
		}
	}
	return nil
}

func copyConfigFiles(ctx *BuildContext) error {
	src := filepath.Join(rootDir, "configs", "config.yaml")
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		printWarning("configs/config.yaml not found, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	dst := filepath.Join(distDir, "configs", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if ctx.Verbose {
		printInfo(fmt.Sprintf("Copying %s -> %s", src, dst))
	}
	return os.WriteFile(dst, data, 0644)
}

func gitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func run(ctx *BuildContext, env []string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = rootDir
	cmd.Env = env
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		printInfo(name + " " + strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v] [-version=X]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all       build web and analyzer into dist/")
	fmt.Println("  web       build the web server")
	fmt.Println("  analyzer  build the batch analyzer")
	fmt.Println("  test      run go test ./...")
	fmt.Println("  clean     remove dist/")
	fmt.Println("  release   cross-compile for linux, windows and darwin")
}
