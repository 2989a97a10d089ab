// 远程调整课时所在的 session
//
// 先拉取课程看板，再通过看板移动课时；远端拒绝时本地回滚并退出。
//
// 用法: go run ./scripts/move_lesson -token <jwt> -course <course id> -lesson <lesson id> -session 3

package main

import (
	"context"
	"course_studio_backend/internal/board"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "服务地址")
	token := flag.String("token", os.Getenv("COURSE_STUDIO_TOKEN"), "教师或管理员的 JWT")
	courseID := flag.String("course", "", "课程 id")
	lessonID := flag.String("lesson", "", "课时 id")
	sessionNo := flag.Int("session", 0, "目标 session，从 1 开始")
	flag.Parse()

	if *courseID == "" || *lessonID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := board.NewHTTPUpdater(*base, *token)
	cards, err := client.FetchBoard(ctx, *courseID)
	if err != nil {
		log.Fatalf("读取看板失败: %v", err)
	}

	found := false
	for _, card := range cards {
		found = found || card.ID == *lessonID
	}
	if !found {
		log.Fatalf("课程 %s 中没有课时 %s", *courseID, *lessonID)
	}

	b := board.New(cards, client)
	if err := b.Move(ctx, *lessonID, *sessionNo); err != nil {
		log.Fatalf("移动课时失败: %v", err)
	}

	for _, col := range b.View() {
		if len(col.Lessons) == 0 {
			continue
		}
		fmt.Printf("Session %d\n", col.SessionNo)
		for _, card := range col.Lessons {
			marker := " "
			if card.ID == *lessonID {
				marker = "*"
			}
			fmt.Printf(" %s %s (%s)\n", marker, card.Title, card.ID)
		}
	}
}
