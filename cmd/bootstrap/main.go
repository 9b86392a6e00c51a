package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"z-novel-similarity/internal/config"
	"z-novel-similarity/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting similarity bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层
	layer, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 建表与向量列
	fmt.Printf("Migrating postgres schema (dimension=%d)...\n", cfg.Embedding.Dimension)
	if err := layer.PgClient.Migrate(ctx, cfg.Embedding.Dimension); err != nil {
		log.Fatalf("failed to migrate postgres: %v", err)
	}

	// 4. Milvus 集合与索引
	if layer.MilvusRepo != nil {
		fmt.Println("Ensuring milvus collection...")
		if err := layer.MilvusRepo.EnsureCollection(ctx); err != nil {
			log.Fatalf("failed to ensure milvus collection: %v", err)
		}
	} else {
		fmt.Printf("Vector backend %q, milvus collection skipped.\n", cfg.Vector.Backend)
	}

	fmt.Println("Bootstrap completed successfully.")
}
