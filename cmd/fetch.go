package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/poubelles-propres/zones-cli/internal/fetcher"
	"github.com/poubelles-propres/zones-cli/internal/insee"
)

var fetchOnly string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the INSEE artifacts into the data directory",
	Long: `Downloads the configured dataset sources (fetch.sources) into the data
directory: the housing base and the commune shapefile arrive as ZIP bundles
and are unpacked, the income workbook and the geography CSV are stored as
is. Datasets without a configured source are skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Fetch.TempDir, 0o755); err != nil {
			return eris.Wrapf(err, "create temp dir %s", cfg.Fetch.TempDir)
		}
		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "create data dir %s", cfg.Data.Dir)
		}

		only := parseOnly(fetchOnly)
		for name := range only {
			if _, err := insee.DatasetByName(cfg.Data, name); err != nil {
				return err
			}
		}

		timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
		httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:     timeout,
			MaxRetries:  cfg.Fetch.MaxRetries,
			RatePerHost: rate.Limit(cfg.Fetch.RatePerHost),
			Burst:       cfg.Fetch.Burst,
		})
		ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})

		var fetched int
		for _, d := range insee.Datasets(cfg.Data) {
			if len(only) > 0 && !only[d.Name] {
				continue
			}
			url := cfg.Fetch.Sources[d.Name]
			if url == "" {
				zap.L().Warn("no source configured, skipping dataset",
					zap.String("dataset", d.Name),
				)
				continue
			}

			start := time.Now()
			if err := fetchDataset(ctx, fetcherFor(url, httpF, ftpF), d, url); err != nil {
				return eris.Wrapf(err, "fetch %s", d.Name)
			}
			zap.L().Info("dataset fetched",
				zap.String("dataset", d.Name),
				zap.String("target", d.Filename),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			fetched++
		}

		fmt.Printf("Fetched %d datasets\n", fetched)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOnly, "only", "", "comma-separated dataset names (housing, income, geography, shapefile)")
	rootCmd.AddCommand(fetchCmd)
}

func parseOnly(s string) map[string]bool {
	if s == "" {
		return nil
	}
	only := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		only[strings.TrimSpace(name)] = true
	}
	return only
}

// fetcherFor picks the transport from the URL scheme. INSEE republishes
// some archives only over FTP mirrors.
func fetcherFor(url string, httpF, ftpF fetcher.Fetcher) fetcher.Fetcher {
	if strings.HasPrefix(url, "ftp://") {
		return ftpF
	}
	return httpF
}

// fetchDataset downloads one artifact and installs it under data.dir. ZIP
// bundles are unpacked in the temp dir first; the data file (and, for the
// shapefile, its sidecars) is then moved to its configured target name.
func fetchDataset(ctx context.Context, f fetcher.Fetcher, d insee.Dataset, url string) error {
	if !d.Zipped {
		dest := filepath.Join(cfg.Data.Dir, d.Filename)
		if cf, ok := f.(fetcher.ConditionalFetcher); ok {
			changed, err := cf.DownloadToFileIfChanged(ctx, url, dest)
			if err == nil && !changed {
				zap.L().Info("artifact unchanged, keeping local copy", zap.String("path", dest))
			}
			return err
		}
		n, err := f.DownloadToFile(ctx, url, dest)
		if err != nil {
			return err
		}
		zap.L().Debug("artifact stored", zap.String("path", dest), zap.Int64("bytes", n))
		return nil
	}

	zipPath := filepath.Join(cfg.Fetch.TempDir, d.Name+".zip")
	if _, err := f.DownloadToFile(ctx, url, zipPath); err != nil {
		return err
	}

	extractDir := filepath.Join(cfg.Fetch.TempDir, d.Name)
	paths, err := fetcher.ExtractZIP(zipPath, extractDir)
	if err != nil {
		return err
	}

	if d.Name == insee.DatasetShapefile {
		return installShapefile(paths, cfg.Data.Dir, d.Filename)
	}
	return installArtifact(paths, cfg.Data.Dir, d.Filename)
}

// installArtifact moves the archive's data file to destDir under the
// configured name. The file is located by the target's extension, so the
// vintage-specific name inside the archive does not matter.
func installArtifact(paths []string, destDir, target string) error {
	src, err := fetcher.FirstWithExt(paths, filepath.Ext(target))
	if err != nil {
		return err
	}
	return moveFile(src, filepath.Join(destDir, target))
}

// installShapefile moves the .shp and every sidecar sharing its stem
// (.dbf, .shx, .prj) to destDir, renamed to the configured target stem.
// go-shp needs the sidecars next to the .shp to read attributes.
func installShapefile(paths []string, destDir, target string) error {
	shpPath, err := fetcher.FirstWithExt(paths, ".shp")
	if err != nil {
		return err
	}
	srcStem := stem(shpPath)
	destStem := strings.TrimSuffix(target, filepath.Ext(target))

	for _, p := range paths {
		if stem(p) != srcStem {
			continue
		}
		dest := filepath.Join(destDir, destStem+strings.ToLower(filepath.Ext(p)))
		if err := moveFile(p, dest); err != nil {
			return err
		}
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// moveFile renames src to dest, falling back to copy+remove when they sit
// on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "open %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "create %s", dest)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "copy to %s", dest)
	}
	if err := out.Close(); err != nil {
		return eris.Wrapf(err, "close %s", dest)
	}
	return os.Remove(src)
}
