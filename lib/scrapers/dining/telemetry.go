package dining

import (
	"diningbot-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("diningbot.lib.scrapers.dining")
