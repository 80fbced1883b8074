package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Tomyshh/aerilux-commerce/internal/cart"
	"github.com/Tomyshh/aerilux-commerce/internal/checkout"
	"github.com/Tomyshh/aerilux-commerce/internal/config"
	"github.com/Tomyshh/aerilux-commerce/internal/events"
	h "github.com/Tomyshh/aerilux-commerce/internal/http"
	"github.com/Tomyshh/aerilux-commerce/internal/pricing"
	"github.com/Tomyshh/aerilux-commerce/internal/store"
)

func main() {
	cfg := config.Load()

	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}
	defer blobs.Close()

	sink, closeSink := newSink(cfg)
	defer closeSink()

	prices := pricing.NewClient(cfg.PriceOracleURL, cfg.RequestTimeout)
	emitter := events.NewEmitter(sink, prices, config.DefaultCurrency)

	cartStore := cart.NewStore(context.Background(), blobs, emitter)

	tokenizer := checkout.NewPaymentProvider(cfg.PaymentProviderURL, cfg.RequestTimeout)
	orders := checkout.NewOrderServiceClient(cfg.BackendBaseURL, cfg.PaymentProviderName, cfg.RequestTimeout)
	builder := checkout.NewBuilder(cartStore, prices, tokenizer, orders, blobs, emitter,
		checkout.RateRules{TaxRate: cfg.TaxRate, FlatShipping: cfg.FlatShipping},
		cfg.ReturnURL, cfg.CancelURL)

	cartHandler := h.NewCartHandler(cartStore, prices, emitter, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(builder, emitter, cfg.RequestTimeout)
	router := h.NewRouter(cartHandler, checkoutHandler, cfg.RequestTimeout)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("commerce engine listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	// Drain in-flight event emissions before the sink goes away.
	emitter.Flush()
}

func newBlobStore(cfg *config.Config) (store.BlobStore, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return store.NewRedisStore(client), nil
	}
	return store.NewSQLiteStore(cfg.SQLitePath)
}

func newSink(cfg *config.Config) (events.Sink, func()) {
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := events.NewKafkaSink(cfg.KafkaBrokers...)
		return kafkaSink, func() {
			if err := kafkaSink.Close(); err != nil {
				log.Printf("failed to close kafka sink: %v", err)
			}
		}
	}
	return events.LogSink{}, func() {}
}
