package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ilmihal"

// StartResolveSpan starts a span for a content lookup. chapterID is empty
// for the list-all path.
func StartResolveSpan(ctx context.Context, chapterID, sectionID, subSectionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "content.resolve",
		trace.WithAttributes(
			attribute.String("content.chapter", chapterID),
			attribute.String("content.section", sectionID),
			attribute.String("content.subsection", subSectionID),
		),
	)
}

// StartChatSpan starts a span for a chatbot question.
func StartChatSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "chat.ask",
		trace.WithAttributes(attribute.String("llm.model", model)),
	)
}

// StartImportSpan starts a span for a PDF import.
func StartImportSpan(ctx context.Context, bookName, chapter string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "content.import",
		trace.WithAttributes(
			attribute.String("import.book", bookName),
			attribute.String("import.chapter", chapter),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
