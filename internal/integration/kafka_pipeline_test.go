//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/insightatlas/insight-atlas/internal/adapter/kafka"
	"github.com/insightatlas/insight-atlas/internal/adapter/nlp"
	"github.com/insightatlas/insight-atlas/internal/analysis"
	"github.com/insightatlas/insight-atlas/internal/config"
	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/narrative"
	"github.com/insightatlas/insight-atlas/internal/observability"
	"github.com/insightatlas/insight-atlas/internal/pipeline"
)

const (
	testSourceTopic = "test-incident-reports"
	testSinkTopic   = "test-incident-analyses"
)

// cannedBackend answers every prompt with the same well-formed response.
type cannedBackend struct{}

func (cannedBackend) Complete(context.Context, string, string) narrative.Completion {
	return narrative.Succeeded(`{"title":"Geospatial Risk Intelligence Report"}` + "\n" +
		narrative.Separator + "\n# Event Summary\nFlooding reported.")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("insight-atlas-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func newAnalyzer() *analysis.Analyzer {
	metrics := observability.NewMetricsForTesting()
	synth := narrative.NewSynthesizer(cannedBackend{}, narrative.Options{DefaultToken: "stream-token"}, discardLogger(), metrics)
	return analysis.New(analysis.Deps{
		Extractor:   nlp.NewPatternExtractor(),
		Classifier:  domain.NewKeywordClassifier(),
		Synthesizer: synth,
	}, analysis.Params{}, discardLogger(), metrics)
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	defer producer.Close()
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func incident(t *testing.T, key, text string) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(domain.IncidentMessage{Text: text})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(key), Value: payload}
}

type sinkMessage struct {
	Key     string
	Headers map[string]string
	Result  domain.AnalysisResult
}

func readSink(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal sink message")
	return sinkMessage{Key: string(msg.Key), Headers: headers, Result: result}
}

func runPipeline(ctx context.Context, t *testing.T, cfg *config.Config) (stop func()) {
	t.Helper()
	reader := kafka.NewReader(cfg, discardLogger())
	writer := kafka.NewWriter(cfg, discardLogger())

	p := pipeline.New(reader, pipeline.NewTransformer(newAnalyzer()), writer,
		discardLogger(), observability.NewMetricsForTesting(), cfg.BatchSize)

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(runCtx) }()

	return func() {
		cancel()
		require.NoError(t, <-errCh)
		_ = reader.Close()
		_ = writer.Close()
	}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchSize:          10,
		BatchFlushInterval: 2 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestStreamAnalysisEndToEnd publishes incident reports and verifies analysis
// results arrive on the sink topic keyed by incident id.
func TestStreamAnalysisEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	publish(ctx, t, broker,
		incident(t, "inc-1", "Severe flooding reported in Vellore near Katpadi."),
		incident(t, "inc-2", "A warehouse fire broke out in Chennai."),
	)

	stop := runPipeline(ctx, t, testConfig(broker, "test-stream"))
	consumer := sinkConsumer(t, broker)

	received := map[string]sinkMessage{}
	for len(received) < 2 {
		msg := readSink(ctx, t, consumer)
		received[msg.Key] = msg
	}
	stop()

	flood := received["inc-1"]
	assert.Equal(t, "inc-1", flood.Result.ID)
	assert.Contains(t, flood.Result.Entities.Locations, "Vellore")
	assert.Contains(t, flood.Result.Risk.Risks, "flood")
	assert.Equal(t, domain.DecodeStrict, flood.Result.Story.Tier)
	assert.Equal(t, "Geospatial Risk Intelligence Report", flood.Result.Story.Dashboard["title"])
	assert.Equal(t, testSourceTopic, flood.Headers["source_topic"])
	_, err := time.Parse(time.RFC3339, flood.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	fire := received["inc-2"]
	assert.Contains(t, fire.Result.Risk.Risks, "fire")
	assert.NotEmpty(t, fire.Headers["risk_index"])
}

// TestStreamSkipsPoisonPill verifies that an undecodable message is skipped
// and the next valid message is still analyzed.
func TestStreamSkipsPoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	publish(ctx, t, broker,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		incident(t, "empty", "   "),
		incident(t, "good", "Protest rally in Madurai."),
	)

	stop := runPipeline(ctx, t, testConfig(broker, "test-poison"))
	defer stop()
	consumer := sinkConsumer(t, broker)

	msg := readSink(ctx, t, consumer)
	assert.Equal(t, "good", msg.Key)
	assert.Contains(t, msg.Result.Risk.Risks, "protest")

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")
}
