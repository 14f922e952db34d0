package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/gatiyaan/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total booking event messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis stat updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	// allow some flags for local runs
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{}
	if brokersEnv != "" {
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	} else {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "booking-events"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "gatiyaan-stats-consumer"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
	radapter := &redisAdapter{c: rc}

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			// readiness: check redis connectivity
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()

		var ev models.BookingEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.OfferID == "" {
			msgsInvalid.Inc()
			log.Printf("invalid message: %v", err)
			continue
		}

		if err := applyEventWithRetry(ctx, radapter, &ev, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("redis update failed for booking=%s: %v", ev.BookingID, err)
			continue
		}
		redisUpdates.Inc()
	}
}

// StatsUpdater defines the small subset of redis operations we need for tests and production.
type StatsUpdater interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) error
	HIncrByFloat(ctx context.Context, key, field string, incr float64) error
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) HIncrBy(ctx context.Context, key, field string, incr int64) error {
	_, err := r.c.HIncrBy(ctx, key, field, incr).Result()
	return err
}

func (r *redisAdapter) HIncrByFloat(ctx context.Context, key, field string, incr float64) error {
	_, err := r.c.HIncrByFloat(ctx, key, field, incr).Result()
	return err
}

func statsKey(offerID string) string { return "offer:stats:" + offerID }

// applyEvent folds one booking event into the per-offer stats hash.
func applyEvent(ctx context.Context, rc StatsUpdater, ev *models.BookingEvent) error {
	key := statsKey(ev.OfferID)
	switch ev.Type {
	case models.EventBookingCreated:
		return rc.HIncrBy(ctx, key, "created", 1)
	case models.EventBookingAccepted:
		return rc.HIncrBy(ctx, key, "accepted", 1)
	case models.EventBookingArrived:
		return rc.HIncrBy(ctx, key, "arrived", 1)
	case models.EventBookingCompleted:
		if err := rc.HIncrBy(ctx, key, "completed", 1); err != nil {
			return err
		}
		if err := rc.HIncrByFloat(ctx, key, "kwh_delivered", ev.KWhCharged); err != nil {
			return err
		}
		return rc.HIncrByFloat(ctx, key, "revenue", ev.FinalCost)
	case models.EventBookingCancelled:
		return rc.HIncrBy(ctx, key, "cancelled", 1)
	default:
		return rc.HIncrBy(ctx, key, "unknown", 1)
	}
}

// applyEventWithRetry applies one event with retry and exponential backoff.
func applyEventWithRetry(ctx context.Context, rc StatsUpdater, ev *models.BookingEvent, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = applyEvent(ctx, rc, ev); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
