package engine

import "context"

// Converter encodes a source into the target format.
type Converter interface {
	Convert(ctx context.Context, source string, target Format) ([]byte, error)
}

// Metadata is what a Prober learns about a source before conversion.
type Metadata struct {
	// Duration in seconds; nil for still images or when unknown.
	Duration  *float64
	Size      *int64
	Thumbnail []byte
	HasAudio  bool
	HasVideo  bool
}

// Prober reads source metadata.
type Prober interface {
	Probe(ctx context.Context, source string) (Metadata, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, source string, target Format) ([]byte, error)

func (f ConverterFunc) Convert(ctx context.Context, source string, target Format) ([]byte, error) {
	return f(ctx, source, target)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, source string) (Metadata, error)

func (f ProberFunc) Probe(ctx context.Context, source string) (Metadata, error) {
	return f(ctx, source)
}
