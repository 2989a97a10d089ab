// Package board 课时看板：按 session 分列展示课时，拖拽移动时先本地更新，远端失败则回滚
package board

import (
	"context"
	"course_studio_backend/internal/model"
	"errors"
	"sort"
	"sync"
)

// MinColumns 看板至少展示的 session 列数
const MinColumns = 12

var ErrInvalidSession = errors.New("session_no must be >= 1")

// Card 看板上的一张课时卡片
type Card struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	SessionNo         int     `json:"session_no"`
	CLOID             *string `json:"clo_id"`
	EstimatedDuration string  `json:"estimated_duration"`
	ResourceCount     int     `json:"resource_count"`
}

// Updater 持久化课时的 session 变更
type Updater interface {
	UpdateSessionNo(ctx context.Context, lessonID string, sessionNo int) error
}

type Column struct {
	SessionNo int    `json:"session_no"`
	Lessons   []Card `json:"lessons"`
}

type Board struct {
	// moveMu 串行化移动，保证回滚不会覆盖其它移动
	moveMu  sync.Mutex
	mu      sync.RWMutex
	cards   []Card
	updater Updater
}

func New(cards []Card, updater Updater) *Board {
	cp := make([]Card, len(cards))
	copy(cp, cards)
	return &Board{cards: cp, updater: updater}
}

// FromLessons 由课时记录构造卡片
func FromLessons(lessons []model.Lesson) []Card {
	cards := make([]Card, 0, len(lessons))
	for _, l := range lessons {
		cards = append(cards, Card{
			ID:                l.ID,
			Title:             l.Title,
			SessionNo:         l.SessionNo,
			CLOID:             l.CLOID,
			EstimatedDuration: l.EstimatedDuration,
			ResourceCount:     len(l.Resources),
		})
	}
	return cards
}

// Lessons 返回当前卡片的副本
func (b *Board) Lessons() []Card {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cp := make([]Card, len(b.cards))
	copy(cp, b.cards)
	return cp
}

// Move 把课时移到 sessionNo；未知课时或同一 session 不做任何事
func (b *Board) Move(ctx context.Context, lessonID string, sessionNo int) error {
	if sessionNo < 1 {
		return ErrInvalidSession
	}

	b.moveMu.Lock()
	defer b.moveMu.Unlock()

	b.mu.Lock()
	idx := -1
	for i := range b.cards {
		if b.cards[i].ID == lessonID {
			idx = i
			break
		}
	}
	if idx < 0 || b.cards[idx].SessionNo == sessionNo {
		b.mu.Unlock()
		return nil
	}

	snapshot := make([]Card, len(b.cards))
	copy(snapshot, b.cards)
	b.cards[idx].SessionNo = sessionNo
	b.mu.Unlock()

	if err := b.updater.UpdateSessionNo(ctx, lessonID, sessionNo); err != nil {
		b.mu.Lock()
		b.cards = snapshot
		b.mu.Unlock()
		return err
	}
	return nil
}

// Columns session 编号 1..max(12, 最大 session+1)
func (b *Board) Columns() []int {
	b.mu.RLock()
	maxSession := 0
	for _, c := range b.cards {
		if c.SessionNo > maxSession {
			maxSession = c.SessionNo
		}
	}
	b.mu.RUnlock()

	n := maxSession + 1
	if n < MinColumns {
		n = MinColumns
	}
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i + 1
	}
	return cols
}

// View 按列分组，列内按标题排序
func (b *Board) View() []Column {
	cols := b.Columns()
	bySession := make(map[int][]Card, len(cols))
	for _, c := range b.Lessons() {
		bySession[c.SessionNo] = append(bySession[c.SessionNo], c)
	}

	out := make([]Column, 0, len(cols))
	for _, n := range cols {
		lessons := bySession[n]
		sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Title < lessons[j].Title })
		if lessons == nil {
			lessons = []Card{}
		}
		out = append(out, Column{SessionNo: n, Lessons: lessons})
	}
	return out
}
