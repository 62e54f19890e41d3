package catalog

import (
	"diningbot-backend/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("diningbot.lib.catalog")

var meter = otel.Meter("diningbot.lib.catalog")
var addedCounter, _ = meter.Int64Counter(
	"foods_added",
	metric.WithDescription("foods discovered by synchronization"),
)
var failedPlaceCounter, _ = meter.Int64Counter(
	"places_failed",
	metric.WithDescription("places skipped during synchronization"),
)
