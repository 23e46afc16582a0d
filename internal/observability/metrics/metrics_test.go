package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("strategy", "remote"),
		attribute.String("user_id", "456"),
		attribute.String("doc_type", "invoice"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "strategy" && attrs[1].Key != "strategy" {
		t.Fatalf("expected strategy to be retained")
	}
	if attrs[0].Key != "doc_type" && attrs[1].Key != "doc_type" {
		t.Fatalf("expected doc_type to be retained")
	}
}
