package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/inventory"
)

// panelcheck drives the inventory client against a running server: log in,
// load the first page, apply the given filters and print what the panel sees.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	username := flag.String("username", "", "account username")
	password := flag.String("password", "", "account password")
	search := flag.String("search", "", "name filter to apply")
	minQuantity := flag.Int("min-quantity", -1, "minimum quantity filter, -1 to disable")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: panelcheck -username <name> -password <password> [-url ...] [-search ...] [-min-quantity ...]")
		os.Exit(2)
	}

	log, err := logger.New(os.Getenv("LOG_DIR"), "panelcheck", os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := inventory.NewHTTPClient(*baseURL)
	if err != nil {
		log.Fatalf("failed to build client: %v", err)
	}
	if err := client.Login(ctx, *username, *password); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	panel := inventory.NewPanel(client, clock.NewRealClock(), log)
	panel.Start(ctx)
	panel.Wait()

	if *search != "" {
		panel.SetSearch(*search)
	}
	if *minQuantity >= 0 {
		min := *minQuantity
		panel.SetMinQuantity(&min)
	}
	if *search != "" || *minQuantity >= 0 {
		// let the debounced fetch land before reading
		time.Sleep(400 * time.Millisecond)
		panel.Wait()
	}

	if err := panel.Err(); err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	fmt.Printf("page %d of %d, %d products total\n", panel.Page(), panel.TotalPages(), panel.TotalProducts())
	for _, product := range panel.Visible() {
		fmt.Printf("  %-40s %6d  %-12s (%s)\n", product.Name, product.Quantity, product.StockStatus(), product.ID)
	}
}
