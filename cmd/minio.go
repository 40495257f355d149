package cmd

import (
	"context"
	"fmt"
	"log"

	"audioarchive/config"
	"audioarchive/db"
	"audioarchive/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix  string
	minioStats   bool
	minioOrphans bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the audio content bucket",
	Long: `List objects in the content bucket, show bucket statistics, or list
orphaned assets (objects no audio_files record references). Orphans are
an accepted residue of failed uploads and replaces; this command gives
operators visibility, it does not delete anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		store := storage.NewAudioStore(cfg)
		ctx := context.Background()

		switch {
		case minioOrphans:
			if err := listOrphans(ctx, cfg, store); err != nil {
				log.Fatalf("Failed to list orphans: %v", err)
			}
		case minioStats:
			stats, err := store.Stats(ctx)
			if err != nil {
				log.Fatalf("Failed to get bucket stats: %v", err)
			}
			fmt.Printf("Objects: %d\nTotal size: %d bytes\nLast modified: %s\n",
				stats.TotalObjects, stats.TotalSize, stats.LastModified)
		default:
			objects, err := store.ListObjects(ctx, minioPrefix)
			if err != nil {
				log.Fatalf("Failed to list objects: %v", err)
			}
			for _, o := range objects {
				fmt.Printf("%s\t%d\t%s\n", o.Key, o.Size, o.LastModified)
			}
			fmt.Printf("%d objects\n", len(objects))
		}
	},
}

// listOrphans prints every stored object that no metadata record points
// at.
func listOrphans(ctx context.Context, cfg *config.Config, store *storage.AudioStore) error {
	if err := db.ConnectDB(cfg); err != nil {
		return err
	}
	defer db.DB.Close()

	rows, err := db.DB.QueryContext(ctx, "SELECT file_url FROM audio_files")
	if err != nil {
		return fmt.Errorf("failed to query referenced file URLs: %w", err)
	}
	defer rows.Close()

	referenced := make(map[string]bool)
	for rows.Next() {
		var fileURL string
		if err := rows.Scan(&fileURL); err != nil {
			return fmt.Errorf("failed to scan file URL: %w", err)
		}
		key, err := storage.KeyFromURL(fileURL)
		if err != nil {
			log.Printf("Skipping unparsable file URL %q: %v", fileURL, err)
			continue
		}
		referenced[key] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating file URLs: %w", err)
	}

	objects, err := store.ListObjects(ctx, "")
	if err != nil {
		return err
	}

	var count int
	for _, o := range objects {
		if !referenced[o.Key] {
			fmt.Printf("%s\t%d\t%s\n", o.Key, o.Size, o.LastModified)
			count++
		}
	}
	fmt.Printf("%d orphaned objects (of %d total)\n", count, len(objects))
	return nil
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter listed objects by key prefix")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "show bucket statistics")
	minioCmd.Flags().BoolVarP(&minioOrphans, "orphans", "o", false, "list objects no record references")

	minioCmd.Example = `  # list all objects
  audioarchive minio

  # show bucket statistics
  audioarchive minio -s

  # list orphaned assets
  audioarchive minio --orphans`
}
