package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocery-planner/internal/app"
	"grocery-planner/internal/cache"
	"grocery-planner/internal/catalog"
	"grocery-planner/internal/config"
	"grocery-planner/internal/database"
	"grocery-planner/internal/location"
	"grocery-planner/internal/logger"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/remote"
	"grocery-planner/internal/syncer"
	"grocery-planner/internal/tags"

	"go.uber.org/zap"
)

func main() {
	date := flag.String("date", time.Now().Format("2006-01-02"), "pricing date to fetch meals for")
	storeID := flag.String("store", "", "store id to select before fetching")
	flag.Parse()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewDB(cfg.CacheDBPath, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	planCache := cache.NewPlanCache(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	planClient := remote.NewPlanClient(cfg.PlanAPIURL, cfg.PlanAPIKey)
	mealClient := remote.NewMealClient(cfg.MealAPIURL, zlog)

	catalogStore := catalog.NewStore(cfg.HouseholdSize, zlog)
	tagStore := tags.NewStore()
	locationStore := location.NewStore()

	coord := syncer.NewCoordinator(planClient, planCache, metricsStore, zlog, syncer.Options{
		DebounceDelay: cfg.SaveDebounce,
		SaveCooldown:  cfg.SaveCooldown,
	})

	application := app.NewApp(cfg, zlog, catalogStore, tagStore, locationStore, coord, mealClient)

	ctx := context.Background()
	if err := application.LoadSession(ctx); err != nil {
		zlog.Warn("session restore failed, starting empty", zap.Error(err))
	}

	if stores, err := mealClient.FetchStores(ctx); err != nil {
		zlog.Warn("store catalog fetch failed", zap.Error(err))
	} else {
		application.SetStores(stores)
	}

	if *storeID != "" {
		if err := application.SelectStore(*storeID); err != nil {
			zlog.Fatal("store selection failed", zap.Error(err))
		}
	}

	if _, ok := locationStore.SelectedStore(); ok {
		if err := application.FetchMeals(ctx, *date); err != nil {
			zlog.Warn("meal fetch failed", zap.Error(err))
		}
	}

	summary := application.MealSummary()
	totals := application.Totals()
	fmt.Printf("Selected meals: %d (breakfast %d, lunch %d, dinner %d)\n",
		summary.Total, summary.Breakfast, summary.Lunch, summary.Dinner)
	fmt.Printf("Plan cost: $%.2f sale / $%.2f regular (saving $%.2f)\n",
		totals.SaleTotal, totals.RegularTotal, totals.TotalSavings)
	for _, item := range application.ShoppingList() {
		fmt.Printf("  %dx %-30s $%.2f\n", item.PacksToBuy, item.ProductName, item.LineCost)
	}

	// Keep syncing until interrupted; the final save runs on shutdown.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	application.Shutdown(shutdownCtx)
}
