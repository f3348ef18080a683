package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Ad-hoc check of the match history mirror. Prints per-opponent results
// across every archived run.
func main() {
	ctx := context.Background()

	dsn := os.Getenv("CLICKHOUSE_URL")
	if dsn == "" {
		dsn = "clickhouse://localhost:9000/rtsbench"
	}
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping ClickHouse: %v", err)
	}

	var total uint64
	if err := conn.QueryRow(ctx, "SELECT count() FROM rtsbench.match_history").Scan(&total); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Total matches: %d\n", total)

	rows, err := conn.Query(ctx, `
		SELECT opponent, result, count() AS matches, round(avg(cycles), 1) AS avg_cycles
		FROM rtsbench.match_history
		GROUP BY opponent, result
		ORDER BY opponent, result
	`)
	if err != nil {
		log.Fatalf("Failed to query match history: %v", err)
	}
	defer rows.Close()

	fmt.Println("opponent        result  matches  avg_cycles")
	for rows.Next() {
		var opponent, result string
		var matches uint64
		var avgCycles float64
		if err := rows.Scan(&opponent, &result, &matches, &avgCycles); err != nil {
			log.Fatalf("Failed to scan row: %v", err)
		}
		fmt.Printf("%-15s %-7s %7d  %10.1f\n", opponent, result, matches, avgCycles)
	}
}
