// Command backfill_share_tokens assigns guest share tokens to trips created
// before tokens were generated on insert.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
	"gorm.io/gorm"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "only report trips without a share token")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := models.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var trips []models.Trip
	if err := db.Where("share_token IS NULL OR share_token = ?", "").Find(&trips).Error; err != nil {
		log.Fatalf("Failed to query trips: %v", err)
	}

	fmt.Printf("Trips without a share token: %d\n", len(trips))
	if *dryRun || len(trips) == 0 {
		return
	}

	updated := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range trips {
			token := trips[i].RegenerateShareToken()
			if err := tx.Model(&trips[i]).Update("share_token", token).Error; err != nil {
				return fmt.Errorf("trip %d: %w", trips[i].ID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to backfill share tokens: %v", err)
	}

	fmt.Printf("Updated %d trips\n", updated)
}
