package builder

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allibot/rtsbench/internal/metrics"
)

const jarManifest = "Manifest-Version: 1.0\nCreated-By: rtsbench\n\n"

// BuildBotJar compiles sourceName from the work dir and packages every
// produced class file into jarName. The build dir and jar are recreated
// from scratch; the finished jar must contain botClass.
func (b *Builder) BuildBotJar(ctx context.Context, sourceName, jarName, botClass string) (string, error) {
	sourcePath := filepath.Join(b.workDir, sourceName)
	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("bot source not found: %s", sourcePath)
	}

	buildDir := filepath.Join(b.workDir, "build_bot")
	if err := os.RemoveAll(buildDir); err != nil {
		return "", fmt.Errorf("clean build dir: %w", err)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", fmt.Errorf("create build dir: %w", err)
	}

	cp := filepath.Join(b.engineDir, "lib", "*") +
		string(os.PathListSeparator) +
		filepath.Join(b.engineDir, "bin")

	b.logger.Infow("Compiling bot", "source", sourcePath, "class", botClass)
	start := time.Now()

	out, err := b.runner.CombinedOutput(ctx, "", "javac", "-cp", cp, "-d", buildDir, sourcePath)
	if err != nil {
		return "", &BuildError{Step: "compile bot", Output: string(out), Err: err}
	}

	jarPath := filepath.Join(b.workDir, jarName)
	if err := packageJar(jarPath, buildDir); err != nil {
		return "", &BuildError{Step: "package jar", Err: err}
	}

	ok, err := JarHasClass(jarPath, botClass)
	if err != nil {
		return "", &BuildError{Step: "verify jar", Err: err}
	}
	if !ok {
		return "", &BuildError{
			Step: "verify jar",
			Err:  fmt.Errorf("built jar %s does not contain %s", jarPath, classToJarEntry(botClass)),
		}
	}

	metrics.BuildsTotal.WithLabelValues("bot_jar").Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	b.logger.Infow("Bot jar built", "jar", jarPath, "duration", time.Since(start))
	return jarPath, nil
}

// VerifyJar fails when the jar does not contain botClass, with a hint for
// the common misconfiguration.
func (b *Builder) VerifyJar(jarPath, botClass string) error {
	ok, err := JarHasClass(jarPath, botClass)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", jarPath, err)
	}
	if !ok {
		return fmt.Errorf("%s does not contain %s; set --bot-class correctly or rebuild the jar from source",
			jarPath, classToJarEntry(botClass))
	}
	return nil
}

// JarHasClass reports whether the jar contains the compiled entry for
// className. A missing jar reads as false, not as an error.
func JarHasClass(jarPath, className string) (bool, error) {
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer zr.Close()

	entry := classToJarEntry(className)
	for _, f := range zr.File {
		if f.Name == entry {
			return true, nil
		}
	}
	return false, nil
}

func classToJarEntry(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ".class"
}

// packageJar writes a fresh deflate-compressed jar whose first entry is the
// manifest, followed by every .class file under buildDir with
// slash-separated archive names.
func packageJar(jarPath, buildDir string) error {
	if err := os.Remove(jarPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale jar: %w", err)
	}

	f, err := os.Create(jarPath)
	if err != nil {
		return fmt.Errorf("create jar: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	mw, err := zw.Create("META-INF/MANIFEST.MF")
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if _, err := mw.Write([]byte(jarManifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	err = filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".class") {
			return nil
		}

		rel, err := filepath.Rel(buildDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("add classes: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize jar: %w", err)
	}
	return nil
}
