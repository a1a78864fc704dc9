// The analyzer consumes analysis jobs from Kafka, loads the referenced
// images from MinIO, runs the geolocation pipeline over each one and
// persists the finished reports.
package main

import (
	"context"
	"log"
	"os"

	"geointel/internal/analyze"
	"geointel/internal/env"
	"geointel/internal/models"
	"geointel/internal/pipeline"
	"geointel/internal/reportstore"
	"geointel/internal/service"
	"geointel/internal/storage"
	"geointel/pkg/geocode"
	"geointel/pkg/graceful"
	"geointel/pkg/kafkaclient"
	"geointel/pkg/vision"
	"geointel/pkg/wikipedia"
)

// loadedImage is what the iterator fetches for each job.
type loadedImage struct {
	data        []byte
	contentType string
}

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	kafkaBroker := env.MustGetEnv("KAFKA_BROKER")
	kafkaTopic := env.MustGetEnv("KAFKA_TOPIC")
	kafkaGroupID := env.MustGetEnv("KAFKA_GROUP_ID")
	reportBucket := env.GetEnvDefault("REPORT_BUCKET", "geointel-reports")

	log.Printf("Connecting to Kafka broker: %s on topic: %s with group ID: %s", kafkaBroker, kafkaTopic, kafkaGroupID)

	consumer, err := kafkaclient.NewKafkaConsumer(kafkaTopic, kafkaGroupID, kafkaBroker)
	if err != nil {
		log.Fatalf("Failed to create kafka consumer: %v", err)
	}

	s3Service, err := storage.NewS3Service()
	if err != nil {
		log.Fatal(err)
	}
	if _, err := s3Service.CreateBucket(ctx, reportBucket, ""); err != nil {
		log.Fatal(err)
	}

	visionClient, err := newVisionClient(ctx)
	if err != nil {
		log.Fatalf("Failed to create vision client: %v", err)
	}

	geocoder := geocode.NewClient()
	landmarks := wikipedia.NewLandmarkService(wikipedia.NewClient())

	// The Postgres index is optional; without it reports only live in the
	// object store.
	var pgStore *reportstore.PostgresStore
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pgStore, err = reportstore.NewPostgresStore(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
	}

	// Finished reports fan out to the object store off the pipeline's back.
	reports := make(chan *models.Report)
	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		s3Service.StoreReportsFromChannel(ctx, reportBucket, reports)
	}()

	p := pipeline.New(
		pipeline.NewStage(analyze.ExifStep(), analyze.VisionStep(visionClient)),
		pipeline.NewStage(analyze.CandidatesStep(geocoder, landmarks)),
		pipeline.NewStage(analyze.LinksStep()),
		pipeline.NewStage(analyze.AddressStep(geocoder)),
	).OnDone(func(ctx context.Context, a *analyze.Analysis) {
		reports <- a.Report
		if pgStore != nil {
			if err := pgStore.Insert(ctx, a.Report); err != nil {
				log.Printf("Failed to index report %q: %v", a.Report.ID, err)
			}
		}
		log.Printf("Report %s finished: %d candidates, model=%s", a.Report.ID, len(a.Report.Candidates), a.Report.ModelUsed)
	})

	consumer.StartConsuming(ctx)
	iterator := service.NewIterator(consumer, func(ctx context.Context, bucket, key string) (*loadedImage, error) {
		data, contentType, err := s3Service.GetImage(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		return &loadedImage{data: data, contentType: contentType}, nil
	})

	in := make(chan *analyze.Analysis)
	go func() {
		defer close(in)
		for obj := range iterator.Objects(ctx) {
			in <- analyze.New(obj.Job, obj.Data.data, obj.Data.contentType)
		}
	}()
	p.Process(ctx, in)
	close(reports)
	<-storeDone

	consumer.Stop()
	log.Println("Analyzer finished, application exiting.")
}

// newVisionClient picks the model backend from VISION_BACKEND. Gemini is
// the default; "openai" covers the hosted API and compatible gateways.
func newVisionClient(ctx context.Context) (vision.Client, error) {
	switch env.GetEnvDefault("VISION_BACKEND", "gemini") {
	case "openai":
		return vision.NewOpenAIClient(
			os.Getenv("OPENAI_BASE_URL"),
			env.MustGetEnv("OPENAI_API_KEY"),
			os.Getenv("OPENAI_MODEL"),
		)
	default:
		return vision.NewGeminiClient(ctx, env.MustGetEnv("GEMINI_API_KEY"))
	}
}
