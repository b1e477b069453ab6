package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"storymagic-api/internal/config"
	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	deps, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 写入订阅套餐，存在则按定义更新
	for _, tier := range entity.DefaultTiers() {
		if err := deps.TierRepo.Upsert(ctx, tier); err != nil {
			log.Fatalf("failed to upsert tier %s: %v", tier.ID, err)
		}
		limit := "unlimited"
		if tier.StoryLimit != nil {
			limit = fmt.Sprintf("%d stories/day", *tier.StoryLimit)
		}
		fmt.Printf("Tier %s (%s): %s\n", tier.ID, tier.Name, limit)
	}

	fmt.Println("Bootstrap completed successfully.")
}
