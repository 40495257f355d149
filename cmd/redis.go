package cmd

import (
	"fmt"
	"log"

	"audioarchive/config"
	"audioarchive/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis connection",
	Long:  `Connect to Redis and run a set/get/del round trip to verify the instance that holds login tokens and preferences.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s (db %d)\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		if err := db.TestRedis(); err != nil {
			log.Fatalf("Redis round trip failed: %v", err)
		}
		fmt.Println("Redis connection OK")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
