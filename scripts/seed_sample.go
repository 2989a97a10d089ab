// 写入示例课程脚本
//
// 与 `go run . -seed` 写入的是同一份机器学习示例课程；也可以通过 -file 指定自定义的课程 YAML。
// 重复执行不会产生重复数据。
//
// 用法: go run scripts/seed_sample.go [-file path/to/course.yaml]

package main

import (
	"context"
	"course_studio_backend/internal/config"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/seed"
	"course_studio_backend/pkg/database"
	"course_studio_backend/pkg/logger"
	"flag"
	"log"
	"os"
)

func main() {
	file := flag.String("file", "", "课程 YAML 文件，默认使用内置示例")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, true)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	ctx := context.Background()
	var course *model.Course
	if *file == "" {
		course, err = seed.Run(ctx, db)
	} else {
		data, readErr := os.ReadFile(*file)
		if readErr != nil {
			log.Fatalf("无法读取课程文件: %v", readErr)
		}
		sample, parseErr := seed.Parse(data)
		if parseErr != nil {
			log.Fatalf("课程文件格式错误: %v", parseErr)
		}
		course, err = seed.Load(ctx, db, sample)
	}
	if err != nil {
		log.Fatalf("写入示例课程失败: %v", err)
	}

	log.Printf("示例课程已就绪: %s (%s)", course.Title, course.ID)
}
