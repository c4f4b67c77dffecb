package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"
	"github.com/spf13/cobra"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/cache/filecache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Move a persistent cache entry's step_dir in and out of an archive",
}

var exportCacheRoot, exportArchivePath string

var cacheExportCmd = &cobra.Command{
	Use:   "export <unique-id>",
	Short: "Archive a persistent cache entry's step_dir (result and retained work dir)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uniqueID := args[0]
		c, err := openPersistentCache(exportCacheRoot)
		if err != nil {
			return err
		}
		dir, ok := c.StepDir(entryFor(uniqueID))
		if !ok {
			return fmt.Errorf("cache at %s has no step_dir for %s", exportCacheRoot, uniqueID)
		}
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("step_dir %s does not exist: %w", dir, err)
		}

		dest := exportArchivePath
		if dest == "" {
			dest = uniqueID + ".tar.gz"
		}
		if err := archiver.Archive([]string{dir}, dest); err != nil {
			return fmt.Errorf("archiving %s: %w", dir, err)
		}
		fmt.Printf("exported %s to %s\n", dir, dest)
		return nil
	},
}

var importCacheRoot string

var cacheImportCmd = &cobra.Command{
	Use:   "import <archive> <unique-id>",
	Short: "Extract a previously exported step_dir archive back into the cache",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archivePath, uniqueID := args[0], args[1]
		c, err := openPersistentCache(importCacheRoot)
		if err != nil {
			return err
		}
		dir, ok := c.StepDir(entryFor(uniqueID))
		if !ok {
			return fmt.Errorf("cache at %s has no step_dir for %s", importCacheRoot, uniqueID)
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return err
		}
		if err := archiver.Unarchive(archivePath, filepath.Dir(dir)); err != nil {
			return fmt.Errorf("extracting %s: %w", archivePath, err)
		}
		fmt.Printf("imported %s into %s\n", archivePath, dir)
		return nil
	},
}

func init() {
	cacheExportCmd.Flags().StringVar(&exportCacheRoot, "cache-dir", "", "persistent cache root (default $HOME/.stepforge/cache)")
	cacheExportCmd.Flags().StringVar(&exportArchivePath, "out", "", "archive destination (default <unique-id>.tar.gz)")
	cacheImportCmd.Flags().StringVar(&importCacheRoot, "cache-dir", "", "persistent cache root (default $HOME/.stepforge/cache)")

	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
}

func openPersistentCache(root string) (cache.PersistentCache, error) {
	if root == "" {
		var err error
		root, err = defaultCacheRoot()
		if err != nil {
			return nil, err
		}
	}
	return filecache.New(root)
}

// entryFor builds a minimal cache.Entry for a unique_id known only as a
// string — the export/import flow operates on a step's persisted identity,
// not a live step.Step instance.
type entryFor string

func (e entryFor) UniqueID() string { return string(e) }
