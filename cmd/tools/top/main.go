package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/oppradar/opportunity-radar/internal/db"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT source, type, title, score, competition_level, created_at FROM opportunities ORDER BY score DESC, created_at DESC LIMIT 20")
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Type", "Title", "Score", "Competition", "Found At"})

	for rows.Next() {
		var source, typ, title, competition string
		var score int
		var createdAt time.Time

		if err := rows.Scan(&source, &typ, &title, &score, &competition, &createdAt); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}

		if len(title) > 60 {
			title = title[:57] + "..."
		}
		t.AppendRow(table.Row{source, typ, title, score, competition, createdAt.Format("2006-01-02 15:04")})
	}
	t.Render()
}
