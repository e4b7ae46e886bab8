// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package mongodb

import "go.opentelemetry.io/otel"

var tracer = otel.GetTracerProvider().Tracer("github.com/JosuX/jh/internal/db/mongodb")
