// Large Sales Data Generator
//
// This tool generates a large pipe-delimited sales data file for performance
// testing and profiling. Roughly one record in fifty is deliberately broken
// (bad prefix, missing field, zero quantity or wrong field count) so the
// validation paths are exercised too.
//
// Usage:
//
//	go run main.go > large_sales_data.txt
//	go run main.go 20000000 > large_sales_data.txt  # Specify target size in bytes
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/robinvdvleuten/salesreport/sales"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
)

var (
	products = []struct {
		name  string
		price int
	}{
		{"Laptop", 45000},
		{"Mouse", 500},
		{"Keyboard", 1500},
		{"Monitor", 12000},
		{"Webcam", 2500},
		{"Headphones", 3200},
		{"USB Cable", 175},
		{"External Hard Drive", 5500},
		{"Wireless Mouse Ergonomic Pro", 1250},
		{"Mechanical Keyboard, RGB", 8999},
	}

	regions = []string{"North", "South", "East", "West", "Central"}
)

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	w := bufio.NewWriter(os.Stdout)
	defer func() { _ = w.Flush() }()

	n, _ := fmt.Fprintln(w, sales.Header)
	bytesWritten := n

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	count := 0

	for bytesWritten < targetSize {
		count++
		date := startDate.AddDate(0, 0, rand.Intn(365))

		var line string
		if rand.Intn(50) == 0 {
			line = generateBrokenRecord(count, date)
		} else {
			line = generateRecord(count, date)
		}

		n, _ := fmt.Fprintln(w, line)
		bytesWritten += n
	}

	_, _ = fmt.Fprintf(os.Stderr, "Generated %d records (%d bytes)\n", count, bytesWritten)
}

func generateRecord(n int, date time.Time) string {
	productIndex := rand.Intn(len(products))
	product := products[productIndex]

	// Product ids above 100 fold back onto the catalog range during enrichment
	productID := productIndex + 1 + 100*rand.Intn(3)

	price := strconv.Itoa(product.price)
	if product.price >= 1000 && rand.Intn(4) == 0 {
		price = fmt.Sprintf("%d,%03d", product.price/1000, product.price%1000)
	}

	return fmt.Sprintf("T%06d|%s|P%d|%s|%d|%s|C%04d|%s",
		n,
		date.Format("2006-01-02"),
		productID,
		product.name,
		1+rand.Intn(15),
		price,
		1+rand.Intn(500),
		regions[rand.Intn(len(regions))],
	)
}

func generateBrokenRecord(n int, date time.Time) string {
	switch rand.Intn(4) {
	case 0:
		return fmt.Sprintf("X%06d|%s|P1|Laptop|1|45000|C0001|North", n, date.Format("2006-01-02"))
	case 1:
		return fmt.Sprintf("T%06d|%s|P2|Mouse|1|500|C0002|", n, date.Format("2006-01-02"))
	case 2:
		return fmt.Sprintf("T%06d|%s|P3|Keyboard|0|1500|C0003|South", n, date.Format("2006-01-02"))
	default:
		return fmt.Sprintf("T%06d|%s|P4|Monitor", n, date.Format("2006-01-02"))
	}
}
