package dining

import "diningbot-backend/lib/telemetry"

var tracer = telemetry.Tracer("diningbot.services.dining")
