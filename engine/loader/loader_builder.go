package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithGenerateNormals controls whether primitives without a NORMAL attribute get smooth
// generated normals (the default) or no normal stream at all.
//
// Parameters:
//   - generate: true to synthesize missing normals
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithGenerateNormals(generate bool) LoaderBuilderOption {
	return func(l *loader) {
		l.generateNormals = generate
	}
}
